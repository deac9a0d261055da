package errs

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrExtraction is the umbrella category every engine failure matches.
	ErrExtraction = errors.New("extraction failed")
	// ErrDiscovery indicates that a needed artifact (player code URL, function
	// name, helper object, response header) could not be located.
	ErrDiscovery = errors.New("discovery failed")
	// ErrCompilation indicates that extracted code does not parse.
	ErrCompilation = errors.New("compilation failed")
	// ErrExecution indicates that compiled code threw at runtime.
	ErrExecution = errors.New("execution failed")
	// ErrNetwork indicates a transport failure, a non-200 response or an
	// exhausted redirect budget.
	ErrNetwork = errors.New("network failure")
	// ErrManifest indicates that a manifest cannot be synthesized from the
	// given descriptor or arguments.
	ErrManifest = errors.New("manifest creation failed")
)

// Error codes
const (
	CodeDiscovery   = "DISCOVERY_FAILED"
	CodeCompilation = "COMPILATION_FAILED"
	CodeExecution   = "EXECUTION_FAILED"
	CodeNetwork     = "NETWORK_FAILURE"
	CodeManifest    = "MANIFEST_FAILED"
)

var stageCodes = map[error]string{
	ErrDiscovery:   CodeDiscovery,
	ErrCompilation: CodeCompilation,
	ErrExecution:   CodeExecution,
	ErrNetwork:     CodeNetwork,
	ErrManifest:    CodeManifest,
}

// Error is a stage-tagged engine failure with a human readable message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`

	stage error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the stage sentinel of e or ErrExtraction.
func (e *Error) Is(target error) bool {
	return target == ErrExtraction || (e.stage != nil && target == e.stage)
}

// Stage returns the stage sentinel (ErrDiscovery, ErrNetwork, ...).
func (e *Error) Stage() error { return e.stage }

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	var cause string
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return json.Marshal(&struct {
		*Alias
		Cause string `json:"cause,omitempty"`
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Cause: cause,
		Error: e.Error(),
	})
}

// New creates an Error for the given stage sentinel.
func New(stage error, message string, cause error) *Error {
	code, ok := stageCodes[stage]
	if !ok {
		code = "EXTRACTION_FAILED"
	}
	return &Error{Code: code, Message: message, Err: cause, stage: stage}
}

// Discovery creates a discovery stage error.
func Discovery(message string, cause error) *Error { return New(ErrDiscovery, message, cause) }

// Compilation creates a compilation stage error.
func Compilation(message string, cause error) *Error { return New(ErrCompilation, message, cause) }

// Execution creates an execution stage error.
func Execution(message string, cause error) *Error { return New(ErrExecution, message, cause) }

// Network creates a network stage error.
func Network(message string, cause error) *Error { return New(ErrNetwork, message, cause) }

// Manifest creates a manifest stage error.
func Manifest(message string, cause error) *Error { return New(ErrManifest, message, cause) }

// IsDiscovery returns true if err is a discovery failure
func IsDiscovery(err error) bool { return errors.Is(err, ErrDiscovery) }

// IsCompilation returns true if err is a compilation failure
func IsCompilation(err error) bool { return errors.Is(err, ErrCompilation) }

// IsExecution returns true if err is an execution failure
func IsExecution(err error) bool { return errors.Is(err, ErrExecution) }

// IsNetwork returns true if err is a network failure
func IsNetwork(err error) bool { return errors.Is(err, ErrNetwork) }

// IsManifest returns true if err is a manifest failure
func IsManifest(err error) bool { return errors.Is(err, ErrManifest) }

// IsExtractionFailure reports whether err belongs to a stage whose outcome
// is a pure function of the player code (discovery or compilation).
func IsExtractionFailure(err error) bool {
	return IsDiscovery(err) || IsCompilation(err)
}
