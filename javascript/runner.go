// Package javascript runs small extracted functions in an embedded
// JavaScript engine and locates balanced function bodies in script text.
package javascript

import (
	"fmt"
	"strings"
	"time"
)

// Engine names accepted by NewRunner.
const (
	EngineGoja = "goja"
	EngineOtto = "otto"
)

// Runner evaluates extracted code in a fresh sandbox.
//
// Compile reports malformed code as a compilation error. Run evaluates code,
// calls functionName with argument and returns the string result; null and
// undefined results are returned as "". Runtime failures are execution
// errors.
type Runner interface {
	Compile(code string) error
	Run(code, functionName, argument string) (string, error)
}

// NewRunner returns the Runner for the named engine. An empty name selects
// goja. A positive timeout bounds every Run.
func NewRunner(name string, timeout time.Duration) (Runner, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineGoja:
		return NewGojaRunner(timeout), nil
	case EngineOtto:
		return NewOttoRunner(timeout), nil
	default:
		return nil, fmt.Errorf("unknown javascript engine %q", name)
	}
}
