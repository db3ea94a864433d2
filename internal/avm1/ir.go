// Package avm1 defines the flat operation list that action blocks are
// lowered into, and the lowering from AVM1 bytecode for the linear
// subset of the instruction set.
package avm1

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is an operand of an IR operation.
type Value interface {
	isValue()
	String() string
}

type (
	Undefined struct{}
	Null      struct{}
	Bool      bool
	I32       int32
	F32       float32
	F64       float64
	Str       string
	// OpRes refers to the result of the operation at this index in the
	// same Code.
	OpRes int
)

func (Undefined) isValue() {}
func (Null) isValue()      {}
func (Bool) isValue()      {}
func (I32) isValue()       {}
func (F32) isValue()       {}
func (F64) isValue()       {}
func (Str) isValue()       {}
func (OpRes) isValue()     {}

func (Undefined) String() string { return "undefined" }
func (Null) String() string      { return "null" }
func (v Bool) String() string    { return strconv.FormatBool(bool(v)) }
func (v I32) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v F32) String() string     { return strconv.FormatFloat(float64(v), 'g', -1, 32) + "f" }
func (v F64) String() string     { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Str) String() string     { return strconv.Quote(string(v)) }
func (v OpRes) String() string   { return "%" + strconv.Itoa(int(v)) }

// Op is a single IR operation.
type Op interface {
	isOp()
	String() string
}

type (
	Play      struct{}
	Stop      struct{}
	GotoFrame struct{ Frame uint16 }
	GetVar    struct{ Name string }
	SetVar    struct {
		Name  string
		Value Value
	}
	GetFn struct{ Name string }
	Call  struct {
		Callee Value
		Args   []Value
	}
	CallMethod struct {
		Receiver Value
		Name     string
		Args     []Value
	}
)

func (Play) isOp()       {}
func (Stop) isOp()       {}
func (GotoFrame) isOp()  {}
func (GetVar) isOp()     {}
func (SetVar) isOp()     {}
func (GetFn) isOp()      {}
func (Call) isOp()       {}
func (CallMethod) isOp() {}

func (Play) String() string        { return "Play" }
func (Stop) String() string        { return "Stop" }
func (o GotoFrame) String() string { return fmt.Sprintf("GotoFrame %d", o.Frame) }
func (o GetVar) String() string    { return "GetVar " + strconv.Quote(o.Name) }
func (o SetVar) String() string    { return fmt.Sprintf("SetVar %q %v", o.Name, o.Value) }
func (o GetFn) String() string     { return "GetFn " + strconv.Quote(o.Name) }
func (o Call) String() string      { return fmt.Sprintf("Call %v(%s)", o.Callee, joinValues(o.Args)) }
func (o CallMethod) String() string {
	return fmt.Sprintf("CallMethod %v.%s(%s)", o.Receiver, o.Name, joinValues(o.Args))
}

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// HasResult reports whether op produces a value that later operations
// may reference with OpRes.
func HasResult(op Op) bool {
	switch op.(type) {
	case GetVar, GetFn, Call, CallMethod:
		return true
	}
	return false
}

// Operands returns the values op reads, in evaluation order.
func Operands(op Op) []Value {
	switch o := op.(type) {
	case SetVar:
		return []Value{o.Value}
	case Call:
		return append([]Value{o.Callee}, o.Args...)
	case CallMethod:
		return append([]Value{o.Receiver}, o.Args...)
	}
	return nil
}

// Code is one lowered action block.
type Code struct {
	Ops []Op
}

// Push appends op and returns its index.
func (c *Code) Push(op Op) OpRes {
	c.Ops = append(c.Ops, op)
	return OpRes(len(c.Ops) - 1)
}

// Validate checks that every OpRes operand names an earlier op that
// produces a result.
func (c *Code) Validate() error {
	for i, op := range c.Ops {
		for _, v := range Operands(op) {
			ref, ok := v.(OpRes)
			if !ok {
				continue
			}
			if int(ref) < 0 || int(ref) >= i || !HasResult(c.Ops[ref]) {
				return fmt.Errorf("op %d: %w %v", i, ErrBadResult, ref)
			}
		}
	}
	return nil
}

func (c *Code) String() string {
	var b strings.Builder
	for i, op := range c.Ops {
		fmt.Fprintf(&b, "%d: %v\n", i, op)
	}
	return b.String()
}
