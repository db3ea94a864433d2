package avm1

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"
)

// asm builds bytecode for tests.
type asm []byte

func (a asm) op(code byte, payload ...byte) asm {
	a = append(a, code)
	if code >= 0x80 {
		a = binary.LittleEndian.AppendUint16(a, uint16(len(payload)))
		a = append(a, payload...)
	}
	return a
}

func pushStr(s string) []byte { return append(append([]byte{0}, s...), 0) }

func pushInt(n int32) []byte { return binary.LittleEndian.AppendUint32([]byte{7}, uint32(n)) }

func pushDouble(f float64) []byte {
	bits := math.Float64bits(f)
	b := binary.LittleEndian.AppendUint32([]byte{6}, uint32(bits>>32))
	return binary.LittleEndian.AppendUint32(b, uint32(bits))
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		code asm
		want []Op
	}{
		{
			name: "play stop goto",
			code: asm{}.op(actionPlay).op(actionStop).op(actionGotoFrame, 5, 0).op(actionEnd),
			want: []Op{Play{}, Stop{}, GotoFrame{Frame: 5}},
		},
		{
			name: "get then set",
			code: asm{}.
				op(actionPush, cat(pushStr("y"), pushStr("x"))...).
				op(actionGetVariable).
				op(actionSetVariable),
			want: []Op{GetVar{Name: "x"}, SetVar{Name: "y", Value: OpRes(0)}},
		},
		{
			name: "call function",
			code: asm{}.
				op(actionPush, cat(pushDouble(2.5), []byte{5, 1}, pushInt(2), pushStr("trace"))...).
				op(actionCallFunction).
				op(actionPop),
			want: []Op{
				GetFn{Name: "trace"},
				Call{Callee: OpRes(0), Args: []Value{Bool(true), F64(2.5)}},
			},
		},
		{
			name: "call method with constant pool",
			code: asm{}.
				op(actionConstantPool, cat([]byte{2, 0}, pushStr("clip")[1:], pushStr("gotoAndPlay")[1:])...).
				op(actionPush, cat(pushInt(3), pushInt(1), []byte{8, 0})...).
				op(actionGetVariable).
				op(actionPush, 8, 1).
				op(actionCallMethod),
			want: []Op{
				GetVar{Name: "clip"},
				CallMethod{Receiver: OpRes(0), Name: "gotoAndPlay", Args: []Value{I32(3)}},
			},
		},
		{
			name: "call method without name",
			code: asm{}.
				op(actionPush, cat(pushInt(0), pushStr("f"))...).
				op(actionGetVariable).
				op(actionPush, 3).
				op(actionCallMethod),
			want: []Op{
				GetVar{Name: "f"},
				Call{Callee: OpRes(0), Args: []Value{}},
			},
		},
		{
			name: "duplicate shares result",
			code: asm{}.
				op(actionPush, pushStr("x")...).
				op(actionGetVariable).
				op(actionPushDuplicate).
				op(actionPush, cat(pushInt(2), pushStr("f"))...).
				op(actionCallFunction),
			want: []Op{
				GetVar{Name: "x"},
				GetFn{Name: "f"},
				Call{Callee: OpRes(1), Args: []Value{OpRes(0), OpRes(0)}},
			},
		},
		{
			name: "literals",
			code: asm{}.
				op(actionPush, cat(pushStr("v"), []byte{2})...).op(actionSetVariable).
				op(actionPush, cat(pushStr("v"), []byte{3})...).op(actionSetVariable).
				op(actionPush, cat(pushStr("v"), []byte{1, 0, 0, 0xc0, 0x3f})...).op(actionSetVariable),
			want: []Op{
				SetVar{Name: "v", Value: Null{}},
				SetVar{Name: "v", Value: Undefined{}},
				SetVar{Name: "v", Value: F32(1.5)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Compile(tt.code)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if !reflect.DeepEqual(code.Ops, tt.want) {
				t.Errorf("Expected\n%v\ngot\n%v", (&Code{Ops: tt.want}).String(), code.String())
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want error
	}{
		{"truncated header", []byte{actionGotoFrame, 2}, ErrTruncated},
		{"truncated payload", []byte{actionGotoFrame, 4, 0, 1}, ErrTruncated},
		{"underflow", asm{}.op(actionGetVariable), ErrStackUnderflow},
		{"jump", asm{}.op(actionJump, 0, 0), ErrUnsupported},
		{"if", asm{}.op(actionIf, 0, 0), ErrUnsupported},
		{"unknown", asm{}.op(0x0A), ErrUnsupported},
		{"register", asm{}.op(actionPush, 4, 0), ErrUnsupported},
		{"dynamic name", asm{}.op(actionPush, pushInt(1)...).op(actionGetVariable), ErrUnsupported},
		{"missing constant", asm{}.op(actionPush, 8, 0), ErrUnsupported},
		{"unterminated string", asm{}.op(actionPush, 0, 'a'), ErrTruncated},
		{"argument count beyond stack", asm{}.op(actionPush, pushInt(0x3fffffff)...).op(actionPush, pushStr("f")...).op(actionCallFunction), ErrStackUnderflow},
		{"method argument count beyond stack", asm{}.op(actionPush, cat(pushInt(2), pushStr("o"), pushStr("m"))...).op(actionCallMethod), ErrStackUnderflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.code)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("Expected *DecodeError, got %T", err)
			}
			t.Logf("%v", err)
		})
	}
}

func TestCompileLegacyString(t *testing.T) {
	// 0xE9 is "é" in Windows-1252 and invalid on its own as UTF-8.
	code, err := Compile(asm{}.op(actionPush, 0, 'c', 'a', 'f', 0xE9, 0).op(actionGetVariable))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got := code.Ops[0].(GetVar).Name; got != "café" {
		t.Errorf("Expected café, got %q", got)
	}
}

func TestHasResult(t *testing.T) {
	for _, op := range []Op{GetVar{}, GetFn{}, Call{}, CallMethod{}} {
		if !HasResult(op) {
			t.Errorf("%v should produce a result", op)
		}
	}
	for _, op := range []Op{Play{}, Stop{}, GotoFrame{}, SetVar{}} {
		if HasResult(op) {
			t.Errorf("%v should not produce a result", op)
		}
	}
}

func TestLowerFunc(t *testing.T) {
	code, err := Bytecode.Lower(asm{}.op(actionStop))
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if len(code.Ops) != 1 {
		t.Errorf("Expected 1 op, got %d", len(code.Ops))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ops  []Op
		ok   bool
	}{
		{"empty", nil, true},
		{"backward reference", []Op{GetVar{Name: "x"}, SetVar{Name: "y", Value: OpRes(0)}}, true},
		{"self reference", []Op{Call{Callee: OpRes(0)}}, false},
		{"forward reference", []Op{SetVar{Name: "y", Value: OpRes(1)}, GetVar{Name: "x"}}, false},
		{"resultless target", []Op{Stop{}, Call{Callee: Str("f"), Args: []Value{OpRes(0)}}}, false},
		{"negative", []Op{GetVar{Name: "x"}, CallMethod{Receiver: OpRes(-1), Name: "m"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Code{Ops: tt.ops}).Validate()
			if tt.ok && err != nil {
				t.Errorf("Expected valid code, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrBadResult) {
				t.Errorf("Expected ErrBadResult, got %v", err)
			}
		})
	}

	code, err := Compile(asm{}.
		op(actionPush, pushStr("x")...).
		op(actionGetVariable).
		op(actionPush, pushStr("y")...).
		op(actionPushDuplicate))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if err := code.Validate(); err != nil {
		t.Errorf("Lowered code should validate: %v", err)
	}
}
