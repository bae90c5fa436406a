package ecs

import (
	"reflect"
	"unsafe"
)

// componentPtrAndType extracts the underlying data pointer and concrete
// type from a component value boxed in an `any`, accepting either T or
// *T. Grounded on the teacher's ecs/view.go, which reaches into an
// interface{}'s data word via the iface layout instead of paying for a
// reflect.New round trip.
func componentPtrAndType(v any) (unsafe.Pointer, reflect.Type) {
	t := reflect.TypeOf(v)
	ptr := (*iface)(unsafe.Pointer(&v)).data
	if t.Kind() == reflect.Pointer {
		return ptr, t.Elem()
	}
	return ptr, t
}

// componentBytes copies size bytes out of v's underlying storage.
func componentBytes(v any, size uintptr) []byte {
	ptr, _ := componentPtrAndType(v)
	if size == 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(ptr), size)
	out := make([]byte, size)
	copy(out, src)
	return out
}
