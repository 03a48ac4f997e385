package ruco

import (
	"path"
	"reflect"
	"strings"
)

// privateMarker prefixes package paths that are not importable, such as the
// "_/abs/dir" paths the toolchain assigns to local packages.
const privateMarker = "_"

// Namespace is the tracer's own package path. Events from it, its
// sub-packages and copies vendored under another root are filtered out.
var Namespace = reflect.TypeOf(TraceEvent{}).PkgPath()

// Admits reports whether events from module may be written, judged against
// the tracer's own Namespace.
func Admits(module string, filterActive bool) bool {
	return AdmitsIn(module, filterActive, Namespace)
}

// AdmitsIn is Admits against an explicit namespace.
//
// With filterActive false everything is admitted. Otherwise empty modules,
// modules inside namespace and modules starting with the private marker are
// rejected.
//
// Inside namespace means the namespace itself, any path below it
// ("<namespace>/..."), its base name alone, or any path ending in
// "/<base>". Matching is by path element, so siblings that merely share
// the prefix, such as "<namespace>x" or "<namespace>_test", are admitted.
func AdmitsIn(module string, filterActive bool, namespace string) bool {
	if !filterActive {
		return true
	}
	m := strings.TrimSuffix(module, ".")
	if m == "" {
		return false
	}
	if inNamespace(m, namespace) {
		return false
	}
	return !strings.HasPrefix(m, privateMarker)
}

func inNamespace(module, namespace string) bool {
	if namespace == "" {
		return false
	}
	if module == namespace || strings.HasPrefix(module, namespace+"/") {
		return true
	}
	base := path.Base(namespace)
	return module == base || strings.HasSuffix(module, "/"+base)
}
