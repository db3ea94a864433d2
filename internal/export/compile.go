// Package export turns a finished timeline into JavaScript: action
// blocks become functions over a runtime handle, and the display list
// becomes plain data.
package export

import (
	"errors"
	"fmt"

	"github.com/ivlev/swf2js/internal/avm1"
	"github.com/ivlev/swf2js/internal/js"
)

// Runtime is the parameter name of every generated function.
const Runtime = "rt"

// ErrMalformedIR is wrapped by every MalformedIRError.
var ErrMalformedIR = errors.New("malformed IR")

// MalformedIRError is an OpRes that does not name an earlier
// result-bearing operation of the same block.
type MalformedIRError struct {
	Block int
	Op    int
	Index int
}

func (e *MalformedIRError) Error() string {
	return fmt.Sprintf("export: block %d op %d: %v: result %d is not produced before use", e.Block, e.Op, ErrMalformedIR, e.Index)
}

func (e *MalformedIRError) Unwrap() error { return ErrMalformedIR }

// TempName is the variable holding the result of operation op in block.
// Blocks compiled into the same function get distinct names.
func TempName(block, op int) string {
	if block == 0 {
		return fmt.Sprintf("_%d", op)
	}
	return fmt.Sprintf("_%d_%d", block, op)
}

type blockCompiler struct {
	block int
	bound []bool
}

// CompileBlock compiles one block into a statement sequence (see
// js.Statements). It fails on the first malformed reference.
func CompileBlock(block int, code *avm1.Code) (js.Code, error) {
	c := &blockCompiler{block: block, bound: make([]bool, len(code.Ops))}

	stmts := make([]js.Code, 0, len(code.Ops))
	for i, op := range code.Ops {
		stmt, err := c.op(i, op)
		if err != nil {
			return "", err
		}
		if avm1.HasResult(op) {
			stmt = js.Var(TempName(block, i), stmt)
			c.bound[i] = true
		}
		stmts = append(stmts, stmt)
	}
	return js.Statements(stmts...), nil
}

func rtCall(method string, args ...js.Code) js.Code {
	return js.Call(js.Member(Runtime, method), args...)
}

func (c *blockCompiler) op(i int, op avm1.Op) (js.Code, error) {
	switch o := op.(type) {
	case avm1.Play:
		return rtCall("play"), nil
	case avm1.Stop:
		return rtCall("stop"), nil
	case avm1.GotoFrame:
		return rtCall("gotoFrame", js.Int(int64(o.Frame))), nil
	case avm1.GetVar:
		return rtCall("getVar", js.String(o.Name)), nil
	case avm1.SetVar:
		v, err := c.value(i, o.Value)
		if err != nil {
			return "", err
		}
		return rtCall("setVar", js.String(o.Name), v), nil
	case avm1.GetFn:
		return rtCall("getFn", js.String(o.Name)), nil
	case avm1.Call:
		callee, err := c.operand(i, o.Callee)
		if err != nil {
			return "", err
		}
		args, err := c.values(i, o.Args)
		if err != nil {
			return "", err
		}
		return js.Call(callee, args...), nil
	case avm1.CallMethod:
		receiver, err := c.operand(i, o.Receiver)
		if err != nil {
			return "", err
		}
		args, err := c.values(i, o.Args)
		if err != nil {
			return "", err
		}
		return js.Call(js.Member(receiver, o.Name), args...), nil
	}
	return "", fmt.Errorf("export: block %d op %d: unknown operation %T", c.block, i, op)
}

func (c *blockCompiler) values(i int, vs []avm1.Value) ([]js.Code, error) {
	out := make([]js.Code, len(vs))
	for k, v := range vs {
		code, err := c.value(i, v)
		if err != nil {
			return nil, err
		}
		out[k] = code
	}
	return out, nil
}

// operand renders a value in callee or receiver position, where numeric
// literals need parentheses.
func (c *blockCompiler) operand(i int, v avm1.Value) (js.Code, error) {
	code, err := c.value(i, v)
	if err != nil {
		return "", err
	}
	switch v.(type) {
	case avm1.I32, avm1.F32, avm1.F64:
		return js.Paren(code), nil
	}
	return code, nil
}

func (c *blockCompiler) value(i int, v avm1.Value) (js.Code, error) {
	switch v := v.(type) {
	case avm1.Undefined:
		return js.Undefined, nil
	case avm1.Null:
		return js.Null, nil
	case avm1.Bool:
		return js.Bool(bool(v)), nil
	case avm1.I32:
		return js.Int(int64(v)), nil
	case avm1.F32:
		return js.Float32(float32(v)), nil
	case avm1.F64:
		return js.Float64(float64(v)), nil
	case avm1.Str:
		return js.String(string(v)), nil
	case avm1.OpRes:
		idx := int(v)
		if idx < 0 || idx >= i || !c.bound[idx] {
			return "", &MalformedIRError{Block: c.block, Op: i, Index: idx}
		}
		return js.Raw(TempName(c.block, idx)), nil
	}
	return "", fmt.Errorf("export: block %d op %d: unknown value %T", c.block, i, v)
}

// Function compiles a frame's blocks, in order, into a single
// function(rt) { ... }.
func Function(blocks []*avm1.Code) (js.Code, error) {
	bodies := make([]js.Code, 0, len(blocks))
	for i, code := range blocks {
		body, err := CompileBlock(i, code)
		if err != nil {
			return "", err
		}
		bodies = append(bodies, body)
	}
	return js.Function([]string{Runtime}, js.Concat(bodies...)), nil
}
