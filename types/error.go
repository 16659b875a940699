package types

import (
	"fmt"

	"github.com/juju/errors"
)

var (
	_ error = &ComputeError{}
	_ error = &DependencyError{}
)

// NewComputeError wraps a compute failure with the node that raised it.
func NewComputeError(nodeID string, otherErr error) error {
	return &ComputeError{baseError: newBaseErr(otherErr), NodeID: nodeID}
}

// NewDependencyError signals a run that terminated with nodes still
// waiting on dependencies: a wiring bug, fatal to the run.
func NewDependencyError(remaining map[string][]string) error {
	return &DependencyError{
		baseError: newBaseErr(errors.Errorf("unsatisfied dependencies: %v", remaining)),
		Remaining: remaining,
	}
}

func newBaseErr(otherErr error) *baseError {
	return &baseError{unwrapErr(otherErr)}
}

func unwrapErr(err error) error {
	if err == nil {
		return nil
	}
	if ue, ok := err.(wrappedErr); ok {
		return unwrapErr(ue.UnwrapLocal())
	}
	return err
}

type wrappedErr interface {
	UnwrapLocal() error
}

type baseError struct {
	BaseErr error
}

func (e *baseError) Error() string {
	return e.BaseErr.Error()
}

func (e *baseError) UnwrapLocal() error {
	return e.BaseErr
}

// ComputeError is raised when a node's compute fails inside a batch. The
// run emits an error checkpoint first so a resume re-runs the batch.
type ComputeError struct {
	*baseError
	NodeID string
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("node %s: %s", e.NodeID, e.BaseErr.Error())
}

// DependencyError carries the pending map at the point the run stalled.
type DependencyError struct {
	*baseError
	Remaining map[string][]string
}
