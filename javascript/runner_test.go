package javascript

import (
	"testing"
	"time"

	"github.com/ytget/ytplayer/errs"
)

const reverseCode = `var H={R:function(a){a.reverse()}};function deobfuscate(a){a=a.split("");H.R(a);return a.join("")}`

func runners() map[string]Runner {
	return map[string]Runner{
		EngineGoja: NewGojaRunner(0),
		EngineOtto: NewOttoRunner(0),
	}
}

func TestRunner_Run(t *testing.T) {
	for name, r := range runners() {
		t.Run(name, func(t *testing.T) {
			got, err := r.Run(reverseCode, "deobfuscate", "abcdef")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "fedcba" {
				t.Errorf("got %q, want fedcba", got)
			}
			// the cached program runs again on a fresh VM
			got, err = r.Run(reverseCode, "deobfuscate", "xy")
			if err != nil || got != "yx" {
				t.Errorf("second run = %q, %v", got, err)
			}
		})
	}
}

func TestRunner_NullAndUndefined(t *testing.T) {
	code := `function u(a){} function n(a){return null}`
	for name, r := range runners() {
		t.Run(name, func(t *testing.T) {
			for _, fn := range []string{"u", "n"} {
				got, err := r.Run(code, fn, "x")
				if err != nil {
					t.Fatalf("%s: unexpected error: %v", fn, err)
				}
				if got != "" {
					t.Errorf("%s: got %q, want empty", fn, got)
				}
			}
		})
	}
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		fn    string
		check func(error) bool
	}{
		{name: "syntax", code: `function f(a){return a.`, fn: "f", check: errs.IsCompilation},
		{name: "throws", code: `function f(a){throw new Error("boom")}`, fn: "f", check: errs.IsExecution},
		{name: "missing function", code: `var x=1;`, fn: "f", check: errs.IsExecution},
		{name: "not a function", code: `var f=1;`, fn: "f", check: errs.IsExecution},
		{name: "top level throws", code: `undefinedThing();function f(a){return a}`, fn: "f", check: errs.IsExecution},
	}
	for name, r := range runners() {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				_, err := r.Run(tt.code, tt.fn, "x")
				if err == nil {
					t.Fatal("expected error")
				}
				if !tt.check(err) {
					t.Errorf("unexpected error stage: %v", err)
				}
			})
		}
	}
}

func TestRunner_Compile(t *testing.T) {
	for name, r := range runners() {
		t.Run(name, func(t *testing.T) {
			if err := r.Compile(reverseCode); err != nil {
				t.Errorf("valid code should compile: %v", err)
			}
			if err := r.Compile(`function (`); !errs.IsCompilation(err) {
				t.Errorf("expected compilation error, got %v", err)
			}
		})
	}
}

func TestRunner_Timeout(t *testing.T) {
	code := `function spin(a){for(;;){}}`
	for name, r := range map[string]Runner{
		EngineGoja: NewGojaRunner(50 * time.Millisecond),
		EngineOtto: NewOttoRunner(50 * time.Millisecond),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := r.Run(code, "spin", "x")
			if !errs.IsExecution(err) {
				t.Errorf("expected execution error, got %v", err)
			}
		})
	}
}

func TestNewRunner(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: "*javascript.GojaRunner"},
		{name: "goja", want: "*javascript.GojaRunner"},
		{name: "OTTO", want: "*javascript.OttoRunner"},
		{name: "v8", wantErr: true},
	}
	for _, tt := range tests {
		r, err := NewRunner(tt.name, 0)
		if (err != nil) != tt.wantErr {
			t.Fatalf("NewRunner(%q) error = %v", tt.name, err)
		}
		if tt.wantErr {
			continue
		}
		switch r.(type) {
		case *GojaRunner:
			if tt.want != "*javascript.GojaRunner" {
				t.Errorf("NewRunner(%q) returned goja", tt.name)
			}
		case *OttoRunner:
			if tt.want != "*javascript.OttoRunner" {
				t.Errorf("NewRunner(%q) returned otto", tt.name)
			}
		}
	}
}
