package javascript

import (
	"errors"
	"fmt"
	"time"

	"github.com/robertkrimen/otto"

	"github.com/ytget/ytplayer/errs"
)

var errOttoTimeout = errors.New("execution timed out")

// OttoRunner runs code with otto. Otto implements ES5 only.
type OttoRunner struct {
	Timeout time.Duration
}

// NewOttoRunner creates an otto backed runner.
func NewOttoRunner(timeout time.Duration) *OttoRunner {
	return &OttoRunner{Timeout: timeout}
}

// Compile implements Runner.
func (r *OttoRunner) Compile(code string) error {
	if _, err := otto.New().Compile("", code); err != nil {
		return errs.Compilation("could not compile javascript", err)
	}
	return nil
}

// Run implements Runner.
func (r *OttoRunner) Run(code, functionName, argument string) (result string, err error) {
	if err := r.Compile(code); err != nil {
		return "", err
	}

	vm := otto.New()
	if r.Timeout > 0 {
		vm.Interrupt = make(chan func(), 1)
		timer := time.AfterFunc(r.Timeout, func() {
			vm.Interrupt <- func() { panic(errOttoTimeout) }
		})
		defer timer.Stop()
		defer func() {
			if rec := recover(); rec != nil {
				if rec == errOttoTimeout {
					result, err = "", errs.Execution(fmt.Sprintf("execution exceeded %s", r.Timeout), errOttoTimeout)
					return
				}
				panic(rec)
			}
		}()
	}

	if _, err := vm.Run(code); err != nil {
		return "", errs.Execution("could not evaluate javascript", err)
	}
	fn, err := vm.Get(functionName)
	if err != nil || !fn.IsFunction() {
		return "", errs.Execution(fmt.Sprintf("%s is not a function", functionName), err)
	}
	v, err := fn.Call(otto.UndefinedValue(), argument)
	if err != nil {
		return "", errs.Execution(fmt.Sprintf("%s threw", functionName), err)
	}
	if v.IsUndefined() || v.IsNull() {
		return "", nil
	}
	return v.ToString()
}
