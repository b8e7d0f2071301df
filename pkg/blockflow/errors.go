package blockflow

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrNilGraph indicates ExecuteWorkflow was called with a nil graph.
	ErrNilGraph = errors.New("graph cannot be nil")

	// ErrInvalidGraph indicates the graph failed validation.
	ErrInvalidGraph = errors.New("graph failed validation")

	// ErrInconsistentGraph indicates the scheduler's ready queue drained
	// before every block was ordered. A validated graph cannot trigger this;
	// it guards against scheduling an unvalidated cyclic graph.
	ErrInconsistentGraph = errors.New("execution order incomplete")
)

// ValidationCode classifies a structural problem found in a graph.
type ValidationCode string

// Validation error codes.
const (
	CodeCircularDependency  ValidationCode = "circular_dependency"
	CodeMissingBlock        ValidationCode = "missing_block"
	CodeUnresolvedReference ValidationCode = "unresolved_reference"
)

// ValidationError describes one structural problem in a graph.
// Depending on the code, it names the offending block, connection, or
// prompt reference.
type ValidationError struct {
	Code         ValidationCode `json:"code"`
	BlockID      string         `json:"block_id,omitempty"`
	ConnectionID string         `json:"connection_id,omitempty"`
	Reference    string         `json:"reference,omitempty"`
	Message      string         `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// GraphError is returned by ExecuteWorkflow when validation fails.
// No execution context is registered before it is returned.
type GraphError struct {
	// Errors holds every problem found; validation does not short-circuit.
	Errors []ValidationError
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("graph failed validation: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidGraph for errors.Is support.
func (e *GraphError) Unwrap() error {
	return ErrInvalidGraph
}

// DispatchError wraps a generation failure with block context and the
// number of attempts made.
type DispatchError struct {
	// BlockID is the block whose generation failed.
	BlockID string
	// BlockNumber is the block's display number.
	BlockNumber string
	// Attempts is the total number of dispatch attempts made.
	Attempts int
	// Err is the last error returned by the dispatcher.
	Err error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch block %s (%s) after %d attempt(s): %v", e.BlockNumber, e.BlockID, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DispatchError) Unwrap() error {
	return e.Err
}
