// Package js builds JavaScript source text.
package js

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dop251/goja"
)

// Code is a fragment of JavaScript source.
type Code string

const (
	Undefined Code = "undefined"
	Null      Code = "null"
)

// Raw wraps s without any escaping.
func Raw(s string) Code {
	return Code(s)
}

// Concat joins fragments with nothing in between.
func Concat(parts ...Code) Code {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(string(p))
	}
	return Code(b.String())
}

// Bool renders true or false.
func Bool(v bool) Code {
	return Code(strconv.FormatBool(v))
}

// Int renders an integer literal.
func Int(v int64) Code {
	return Code(strconv.FormatInt(v, 10))
}

// Float64 renders the shortest literal that parses back to exactly v.
func Float64(v float64) Code {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0 && math.Signbit(v):
		return "-0"
	}
	return Code(strconv.FormatFloat(v, 'g', -1, 64))
}

// Float32 renders v widened to a double, which is how the value behaves
// once loaded; the literal also narrows back to v exactly.
func Float32(v float32) Code {
	return Float64(float64(v))
}

// String renders a double-quoted string literal.
func String(s string) Code {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		case '\u2028', '\u2029':
			writeUnicodeEscape(&b, r)
		default:
			if r < 0x20 || r == 0x7f || (r == utf8.RuneError && size == 1) {
				writeUnicodeEscape(&b, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return Code(b.String())
}

func writeUnicodeEscape(b *strings.Builder, r rune) {
	const hex = "0123456789abcdef"
	b.WriteString(`\u`)
	for shift := 12; shift >= 0; shift -= 4 {
		b.WriteByte(hex[(r>>uint(shift))&0xf])
	}
}

// Paren wraps c in parentheses.
func Paren(c Code) Code {
	return "(" + c + ")"
}

// Call renders callee(args...).
func Call(callee Code, args ...Code) Code {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = string(a)
	}
	return callee + "(" + Code(strings.Join(parts, ", ")) + ")"
}

// Member renders receiver.name, or receiver["name"] when name is not a
// valid identifier.
func Member(receiver Code, name string) Code {
	if IsIdentifier(name) {
		return receiver + "." + Code(name)
	}
	return receiver + "[" + String(name) + "]"
}

// IsIdentifier reports whether s can follow a dot in a member expression.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '$' || r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)):
		default:
			return false
		}
	}
	return true
}

// Var renders a variable declaration.
func Var(name string, value Code) Code {
	return "var " + Code(name) + " = " + value
}

// Statements puts each statement on its own line, terminated by a
// semicolon. The result starts with a newline so it can follow an
// opening brace.
func Statements(stmts ...Code) Code {
	var b strings.Builder
	for _, s := range stmts {
		b.WriteByte('\n')
		b.WriteString(string(s))
		b.WriteByte(';')
	}
	return Code(b.String())
}

// Indent shifts every line after the first newline by one level.
func Indent(c Code) Code {
	return Code(strings.ReplaceAll(string(c), "\n", "\n  "))
}

// Function renders an anonymous function with the given parameters.
func Function(params []string, body Code) Code {
	return "function(" + Code(strings.Join(params, ", ")) + ") {" + Indent(body) + "\n}"
}

// Check parses c as an expression and reports syntax errors.
func Check(c Code) error {
	_, err := goja.Compile("", "("+string(c)+"\n)", false)
	return err
}
