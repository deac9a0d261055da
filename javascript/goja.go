package javascript

import (
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/ytget/ytplayer/errs"
)

// GojaRunner runs code with goja. Compiled programs are cached by source so
// repeated calls only pay for VM setup.
type GojaRunner struct {
	Timeout time.Duration

	mu       sync.Mutex
	programs map[string]*goja.Program
}

// NewGojaRunner creates a goja backed runner.
func NewGojaRunner(timeout time.Duration) *GojaRunner {
	return &GojaRunner{Timeout: timeout, programs: make(map[string]*goja.Program)}
}

// Compile implements Runner.
func (r *GojaRunner) Compile(code string) error {
	_, err := r.program(code)
	return err
}

func (r *GojaRunner) program(code string) (*goja.Program, error) {
	r.mu.Lock()
	p, ok := r.programs[code]
	r.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := goja.Compile("", code, false)
	if err != nil {
		return nil, errs.Compilation("could not compile javascript", err)
	}

	r.mu.Lock()
	if r.programs == nil {
		r.programs = make(map[string]*goja.Program)
	}
	r.programs[code] = p
	r.mu.Unlock()
	return p, nil
}

// Run implements Runner.
func (r *GojaRunner) Run(code, functionName, argument string) (string, error) {
	p, err := r.program(code)
	if err != nil {
		return "", err
	}

	vm := goja.New()
	if r.Timeout > 0 {
		timer := time.AfterFunc(r.Timeout, func() {
			vm.Interrupt(fmt.Sprintf("execution exceeded %s", r.Timeout))
		})
		defer timer.Stop()
	}

	if _, err := vm.RunProgram(p); err != nil {
		return "", errs.Execution("could not evaluate javascript", err)
	}
	fn, ok := goja.AssertFunction(vm.Get(functionName))
	if !ok {
		return "", errs.Execution(fmt.Sprintf("%s is not a function", functionName), nil)
	}
	v, err := fn(goja.Undefined(), vm.ToValue(argument))
	if err != nil {
		return "", errs.Execution(fmt.Sprintf("%s threw", functionName), err)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", nil
	}
	return v.String(), nil
}
