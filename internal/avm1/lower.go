package avm1

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrTruncated means a record or string runs past the end of the input.
	ErrTruncated = errors.New("truncated action record")
	// ErrStackUnderflow means an action needs more values than were pushed.
	ErrStackUnderflow = errors.New("stack underflow")
	// ErrUnsupported marks actions and operands outside the linear subset.
	ErrUnsupported = errors.New("unsupported")
	// ErrBadResult is reported by Validate for a dangling OpRes.
	ErrBadResult = errors.New("reference to missing result")
)

// DecodeError reports where lowering stopped.
type DecodeError struct {
	Offset int
	Action byte
	Err    error
	Detail string
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("avm1: %s at offset %d: %v", actionName(e.Action), e.Offset, e.Err)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Lowerer turns raw DoAction bytecode into a Code block.
type Lowerer interface {
	Lower(raw []byte) (*Code, error)
}

// LowerFunc adapts a function to Lowerer.
type LowerFunc func(raw []byte) (*Code, error)

func (f LowerFunc) Lower(raw []byte) (*Code, error) { return f(raw) }

// Bytecode is the default Lowerer.
var Bytecode Lowerer = LowerFunc(Compile)

const (
	actionEnd           = 0x00
	actionPlay          = 0x06
	actionStop          = 0x07
	actionPop           = 0x17
	actionGetVariable   = 0x1C
	actionSetVariable   = 0x1D
	actionCallFunction  = 0x3D
	actionPushDuplicate = 0x4C
	actionCallMethod    = 0x52
	actionGotoFrame     = 0x81
	actionConstantPool  = 0x88
	actionPush          = 0x96
	actionJump          = 0x99
	actionIf            = 0x9D
)

func actionName(code byte) string {
	switch code {
	case actionEnd:
		return "End"
	case actionPlay:
		return "Play"
	case actionStop:
		return "Stop"
	case actionPop:
		return "Pop"
	case actionGetVariable:
		return "GetVariable"
	case actionSetVariable:
		return "SetVariable"
	case actionCallFunction:
		return "CallFunction"
	case actionPushDuplicate:
		return "PushDuplicate"
	case actionCallMethod:
		return "CallMethod"
	case actionGotoFrame:
		return "GotoFrame"
	case actionConstantPool:
		return "ConstantPool"
	case actionPush:
		return "Push"
	case actionJump:
		return "Jump"
	case actionIf:
		return "If"
	}
	return fmt.Sprintf("action 0x%02X", code)
}

// Compile lowers a DoAction bytecode stream into a flat operation list.
// The stack is resolved at lowering time, so every operand in the result
// is either a constant or an OpRes.
func Compile(raw []byte) (*Code, error) {
	l := &lowering{code: &Code{}}

	pos := 0
	for pos < len(raw) {
		offset := pos
		action := raw[pos]
		pos++
		if action == actionEnd {
			break
		}

		var payload []byte
		if action >= 0x80 {
			if pos+2 > len(raw) {
				return nil, &DecodeError{Offset: offset, Action: action, Err: ErrTruncated}
			}
			n := int(binary.LittleEndian.Uint16(raw[pos:]))
			pos += 2
			if pos+n > len(raw) {
				return nil, &DecodeError{Offset: offset, Action: action, Err: ErrTruncated,
					Detail: fmt.Sprintf("payload wants %d bytes, %d left", n, len(raw)-pos)}
			}
			payload = raw[pos : pos+n]
			pos += n
		}

		if err := l.step(action, payload); err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Offset, de.Action = offset, action
				return nil, de
			}
			return nil, &DecodeError{Offset: offset, Action: action, Err: err}
		}
	}

	return l.code, nil
}

type lowering struct {
	code      *Code
	stack     []Value
	constants []string
}

func (l *lowering) push(v Value) {
	l.stack = append(l.stack, v)
}

func (l *lowering) pop() (Value, error) {
	if len(l.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	v := l.stack[len(l.stack)-1]
	l.stack = l.stack[:len(l.stack)-1]
	return v, nil
}

func (l *lowering) popName(what string) (string, error) {
	v, err := l.pop()
	if err != nil {
		return "", err
	}
	s, ok := v.(Str)
	if !ok {
		return "", &DecodeError{Err: ErrUnsupported, Detail: fmt.Sprintf("non-constant %s %v", what, v)}
	}
	return string(s), nil
}

func (l *lowering) popArgs() ([]Value, error) {
	v, err := l.pop()
	if err != nil {
		return nil, err
	}

	var n int
	switch c := v.(type) {
	case I32:
		n = int(c)
	case F64:
		n = int(c)
		if float64(n) != float64(c) {
			n = -1
		}
	case F32:
		n = int(c)
		if float32(n) != float32(c) {
			n = -1
		}
	default:
		return nil, &DecodeError{Err: ErrUnsupported, Detail: fmt.Sprintf("non-constant argument count %v", v)}
	}
	if n < 0 {
		return nil, &DecodeError{Err: ErrUnsupported, Detail: fmt.Sprintf("bad argument count %v", v)}
	}

	if n > len(l.stack) {
		return nil, &DecodeError{Err: ErrStackUnderflow, Detail: fmt.Sprintf("%d arguments, %d on stack", n, len(l.stack))}
	}

	args := make([]Value, n)
	for i := range args {
		if args[i], err = l.pop(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (l *lowering) step(action byte, payload []byte) error {
	switch action {
	case actionPlay:
		l.code.Push(Play{})
	case actionStop:
		l.code.Push(Stop{})
	case actionGotoFrame:
		if len(payload) < 2 {
			return ErrTruncated
		}
		l.code.Push(GotoFrame{Frame: binary.LittleEndian.Uint16(payload)})

	case actionConstantPool:
		return l.constantPool(payload)
	case actionPush:
		return l.pushValues(payload)
	case actionPop:
		_, err := l.pop()
		return err
	case actionPushDuplicate:
		v, err := l.pop()
		if err != nil {
			return err
		}
		l.push(v)
		l.push(v)

	case actionGetVariable:
		name, err := l.popName("variable name")
		if err != nil {
			return err
		}
		l.push(l.code.Push(GetVar{Name: name}))
	case actionSetVariable:
		value, err := l.pop()
		if err != nil {
			return err
		}
		name, err := l.popName("variable name")
		if err != nil {
			return err
		}
		l.code.Push(SetVar{Name: name, Value: value})

	case actionCallFunction:
		name, err := l.popName("function name")
		if err != nil {
			return err
		}
		args, err := l.popArgs()
		if err != nil {
			return err
		}
		fn := l.code.Push(GetFn{Name: name})
		l.push(l.code.Push(Call{Callee: fn, Args: args}))
	case actionCallMethod:
		name, err := l.pop()
		if err != nil {
			return err
		}
		receiver, err := l.pop()
		if err != nil {
			return err
		}
		args, err := l.popArgs()
		if err != nil {
			return err
		}
		switch n := name.(type) {
		case Undefined:
			l.push(l.code.Push(Call{Callee: receiver, Args: args}))
		case Str:
			if n == "" {
				l.push(l.code.Push(Call{Callee: receiver, Args: args}))
			} else {
				l.push(l.code.Push(CallMethod{Receiver: receiver, Name: string(n), Args: args}))
			}
		default:
			return &DecodeError{Err: ErrUnsupported, Detail: fmt.Sprintf("non-constant method name %v", name)}
		}

	case actionJump, actionIf:
		return &DecodeError{Err: ErrUnsupported, Detail: "control flow"}
	default:
		return ErrUnsupported
	}
	return nil
}

func (l *lowering) constantPool(payload []byte) error {
	if len(payload) < 2 {
		return ErrTruncated
	}
	count := int(binary.LittleEndian.Uint16(payload))
	rest := payload[2:]

	l.constants = make([]string, 0, count)
	for i := 0; i < count; i++ {
		s, n, err := readString(rest)
		if err != nil {
			return err
		}
		l.constants = append(l.constants, s)
		rest = rest[n:]
	}
	return nil
}

func (l *lowering) pushValues(payload []byte) error {
	for len(payload) > 0 {
		kind := payload[0]
		payload = payload[1:]

		need := 0
		switch kind {
		case 1, 7:
			need = 4
		case 4, 5, 8:
			need = 1
		case 6:
			need = 8
		case 9:
			need = 2
		}
		if len(payload) < need {
			return ErrTruncated
		}

		switch kind {
		case 0:
			s, n, err := readString(payload)
			if err != nil {
				return err
			}
			l.push(Str(s))
			payload = payload[n:]
			continue
		case 1:
			l.push(F32(math.Float32frombits(binary.LittleEndian.Uint32(payload))))
		case 2:
			l.push(Null{})
		case 3:
			l.push(Undefined{})
		case 4:
			return &DecodeError{Err: ErrUnsupported, Detail: "register operand"}
		case 5:
			l.push(Bool(payload[0] != 0))
		case 6:
			// Doubles are stored high word first, each word little-endian.
			hi := uint64(binary.LittleEndian.Uint32(payload))
			lo := uint64(binary.LittleEndian.Uint32(payload[4:]))
			l.push(F64(math.Float64frombits(hi<<32 | lo)))
		case 7:
			l.push(I32(int32(binary.LittleEndian.Uint32(payload))))
		case 8, 9:
			idx := int(payload[0])
			if kind == 9 {
				idx = int(binary.LittleEndian.Uint16(payload))
			}
			if idx >= len(l.constants) {
				return &DecodeError{Err: ErrUnsupported,
					Detail: fmt.Sprintf("constant %d out of range (pool has %d)", idx, len(l.constants))}
			}
			l.push(Str(l.constants[idx]))
		default:
			return &DecodeError{Err: ErrUnsupported, Detail: fmt.Sprintf("push type %d", kind)}
		}
		payload = payload[need:]
	}
	return nil
}

// readString reads a NUL-terminated string and returns it with the number
// of bytes consumed, terminator included.
func readString(b []byte) (string, int, error) {
	for i, c := range b {
		if c == 0 {
			return decodeString(b[:i]), i + 1, nil
		}
	}
	return "", 0, ErrTruncated
}

// decodeString keeps UTF-8 as is. Anything else comes from a pre-Unicode
// movie and is read as Windows-1252.
func decodeString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
