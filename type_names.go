package nwire

import (
	"reflect"

	"github.com/muir/reflectutils"
)

// typeOf returns the reflect.Type for T, including when T is an
// interface type.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// typeName names types the way they appear in error messages.  Versioned
// packages keep their version suffix.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return reflectutils.TypeName(t)
}

func typeNames(types []reflect.Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = typeName(t)
	}
	return names
}
