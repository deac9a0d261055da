package cipher

import (
	"errors"
	"strings"
	"testing"

	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/javascript"
)

func TestSignatureTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    int
		wantErr bool
	}{
		{name: "colon", code: playerFixture, want: 19834},
		{name: "equals", code: `a.signatureTimestamp=20111,b`, want: 20111},
		{name: "missing", code: `var sts=1;`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignatureTimestamp(tt.code)
			if tt.wantErr {
				if !errs.IsDiscovery(err) {
					t.Fatalf("expected discovery error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSignatureFunctionName(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{name: "h.s", code: playerFixture, want: "Qr"},
		{name: "c&&", code: `var c=b.s;c&&(c=Tu$(decodeURIComponent(c)),d.set(c))`, want: "Tu$"},
		{name: "a.split", code: `;Kq=function(a){a=a.split("");return a}`, want: "Kq"},
		{name: "other argument", code: `;Mn=function(z){z=z.split("");return z.join("")}`, want: "Mn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignatureFunctionName(tt.code)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignatureFunctionName_NoPattern(t *testing.T) {
	_, err := SignatureFunctionName(`var nothing=1;`)
	if !errs.IsDiscovery(err) {
		t.Fatalf("expected discovery error, got %v", err)
	}
	if !errors.Is(err, ErrNoPatternMatched) {
		t.Errorf("error should identify that no pattern matched: %v", err)
	}
}

func TestSignatureFunction(t *testing.T) {
	runner := javascript.NewGojaRunner(0)
	tests := []struct {
		name  string
		code  string
		want  string
		check func(error) bool
	}{
		{
			name: "lexer",
			code: playerFixture,
			want: `var Qr=function(a){a=a.split("");XyZ.Cd(a,37);XyZ.Ef(a,2);XyZ.Ab(a,1);return a.join("")};`,
		},
		{
			name: "regex fallback when braces do not balance",
			code: `Qr=function(a){a=a.split("");if(a.length)/[{]/.test(a);return a.join("")};`,
			want: `var Qr=function(a){a=a.split("");if(a.length)/[{]/.test(a);return a.join("")}`,
		},
		{
			name:  "does not compile",
			code:  `Qr=function(a){a=a.split("");return a.join("")+};`,
			check: errs.IsCompilation,
		},
		{
			name:  "missing",
			code:  `Zz=function(a){}`,
			check: errs.IsDiscovery,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignatureFunction(tt.code, "Qr", runner)
			if tt.check != nil {
				if !tt.check(err) {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignatureHelperObject(t *testing.T) {
	fn := `var Qr=function(a){a=a.split("");XyZ.Cd(a,37);return a.join("")};`
	got, err := SignatureHelperObject(playerFixture, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "var XyZ={Ab:") || !strings.HasSuffix(got, "}};") {
		t.Errorf("unexpected helper %q", got)
	}
	if strings.Contains(got, "\n") {
		t.Error("newlines should be stripped")
	}

	if _, err := SignatureHelperObject(playerFixture, `var Qr=function(a){return a};`); !errs.IsDiscovery(err) {
		t.Errorf("missing helper reference: expected discovery error, got %v", err)
	}
	if _, err := SignatureHelperObject(`var Other={}`, fn); !errs.IsDiscovery(err) {
		t.Errorf("missing helper definition: expected discovery error, got %v", err)
	}
}

func TestSignatureDeobfuscationCode_RoundTrip(t *testing.T) {
	for name, runner := range map[string]javascript.Runner{
		"goja": javascript.NewGojaRunner(0),
		"otto": javascript.NewOttoRunner(0),
	} {
		t.Run(name, func(t *testing.T) {
			code, err := SignatureDeobfuscationCode(playerFixture, runner)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasSuffix(code, "function deobfuscate(a){return Qr(a);}") {
				t.Errorf("snippet should end with the wrapper: %q", code)
			}
			got, err := runner.Run(code, DeobfuscateFunctionName, signatureIn)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if got != signatureOut {
				t.Errorf("got %q, want %q", got, signatureOut)
			}
		})
	}
}

func TestSignatureDeobfuscationCode_Player4fbb4d5b(t *testing.T) {
	runner := javascript.NewGojaRunner(0)
	code, err := SignatureDeobfuscationCode(player4fbb4d5b, runner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(code, "var Mt={splice:") {
		t.Errorf("helper object should lead the snippet: %q", code)
	}
	got, err := runner.Run(code, DeobfuscateFunctionName, signature4fbb4d5bIn)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != signature4fbb4d5bOut {
		t.Errorf("got %q, want %q", got, signature4fbb4d5bOut)
	}
}

func TestSignatureDeobfuscationCode_Deterministic(t *testing.T) {
	runner := javascript.NewGojaRunner(0)
	first, err := SignatureDeobfuscationCode(playerFixture, runner)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, err := SignatureDeobfuscationCode(playerFixture, runner)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("extraction %d differs:\n%q\n%q", i, again, first)
		}
	}
}
