package ruco

import (
	"reflect"
	"strings"
)

const unknownName = "unknown"

// ModuleOf returns the package path of the frame's function followed by a
// "." separator, or "" when the symbol carries no package.
func ModuleOf(f Frame) string {
	pkg, _ := splitSymbol(f.Function)
	if pkg == "" {
		return ""
	}
	return pkg + "."
}

// OwningTypeOf returns "<TypeName>." when the frame is a method invocation
// with a resolvable receiver type, otherwise "".
//
// An explicit receiver (see Method) wins when its type has a name. Without
// one the receiver is read from the symbol, so "(*T).M" and "T.M" both
// resolve to "T.". Anonymous receiver types resolve to "".
func OwningTypeOf(f Frame) string {
	if f.Receiver != nil {
		if name := receiverTypeName(f.Receiver); name != "" {
			return name + "."
		}
		return ""
	}
	_, rest := splitSymbol(f.Function)
	typ, _ := splitReceiver(rest)
	if typ == "" {
		return ""
	}
	return typ + "."
}

// QualifiedNameOf returns the function name including its lexical nesting,
// e.g. "run.func1" for a closure inside run, "unknown" if the symbol is empty.
// The receiver type is not part of the name.
func QualifiedNameOf(f Frame) string {
	_, rest := splitSymbol(f.Function)
	_, name := splitReceiver(rest)
	if name == "" {
		return unknownName
	}
	return name
}

// splitSymbol splits a runtime symbol into its package path and the
// package-relative remainder. Dots in the last path element are escaped as
// %2e by the toolchain, so the first dot after the last slash ends the path.
func splitSymbol(symbol string) (pkg, rest string) {
	if symbol == "" {
		return "", ""
	}
	slash := strings.LastIndexByte(symbol, '/')
	dot := strings.IndexByte(symbol[slash+1:], '.')
	if dot < 0 {
		return "", symbol
	}
	dot += slash + 1
	return strings.ReplaceAll(symbol[:dot], "%2e", "."), symbol[dot+1:]
}

// splitReceiver separates a method receiver from the remainder of a symbol.
func splitReceiver(rest string) (typ, name string) {
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return "", rest
		}
		typ = strings.TrimPrefix(rest[1:end], "*")
		return typ, strings.TrimPrefix(rest[end+1:], ".")
	}

	head, tail, ok := cutName(rest)
	if !ok {
		return "", rest
	}
	next, _, _ := cutName(tail)
	if isLexicalSegment(next) {
		return "", rest
	}
	return head, tail
}

// cutName cuts s around the first "." outside of type-parameter brackets,
// so "Box[...].Get" splits into "Box[...]" and "Get".
func cutName(s string) (before, after string, found bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return s, "", false
}

// isLexicalSegment reports whether s names a compiler-generated nested
// function (closures, go/defer wrappers, numbered init or nested literals)
// rather than a method.
func isLexicalSegment(s string) bool {
	trimmed := strings.TrimRight(s, "0123456789")
	switch trimmed {
	case "", "func", "gowrap", "deferwrap":
		return true
	}
	return false
}

func receiverTypeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}
