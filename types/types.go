package types

import (
	"reflect"

	"github.com/spf13/cast"
)

type PortDirection int32

const (
	In    PortDirection = 1
	Out   PortDirection = 2
	InOut PortDirection = 3
)

type PortFunction int32

const (
	DataPort    PortFunction = 1
	ControlPort PortFunction = 2
)

// ExecCommand tells the scheduler what to do with a node after compute.
type ExecCommand string

const (
	// Continue: propagate outputs, nothing else to do.
	Continue ExecCommand = "CONTINUE"
	// Wait: park the node until external input arrives.
	Wait ExecCommand = "WAIT"
	// LoopAgain: push the node onto the deferred stack for another pass.
	LoopAgain ExecCommand = "LOOP_AGAIN"
	// Completed: normal loop exit.
	Completed ExecCommand = "COMPLETED"
)

// ValueType is the soft typing tag carried by every port.
type ValueType string

const (
	AnyType    ValueType = "any"
	IntType    ValueType = "int"
	FloatType  ValueType = "float"
	StringType ValueType = "string"
	BoolType   ValueType = "bool"
	DictType   ValueType = "dict"
	ArrayType  ValueType = "array"
	ObjectType ValueType = "object"
	VectorType ValueType = "vector"
	MatrixType ValueType = "matrix"
	ColorType  ValueType = "color"
	BinaryType ValueType = "binary"
)

// Validate reports whether value conforms to the tag. A nil value always
// conforms. Integers pass the float check (promotion).
func (vt ValueType) Validate(value any) bool {
	if vt == AnyType || value == nil {
		return true
	}

	switch vt {
	case IntType:
		return isInteger(value)

	case FloatType:
		if isInteger(value) {
			return true
		}
		switch value.(type) {
		case float32, float64:
			return true
		}
		return false

	case StringType:
		_, ok := value.(string)
		return ok

	case BoolType:
		_, ok := value.(bool)
		return ok

	case DictType:
		if _, ok := value.(Data); ok {
			return true
		}
		_, err := cast.ToStringMapE(value)
		return err == nil

	case ArrayType, VectorType, MatrixType:
		kind := reflect.ValueOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array

	case ObjectType:
		return true

	case ColorType:
		if _, ok := value.(string); ok {
			return true
		}
		kind := reflect.ValueOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array

	case BinaryType:
		_, ok := value.([]byte)
		return ok
	}
	return false
}

func isInteger(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// Truthy is the control-activation test: a control port is active when its
// value casts to true.
func Truthy(value any) bool {
	return cast.ToBool(value)
}
