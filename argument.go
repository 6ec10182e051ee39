package paraminject

import (
	"fmt"
	"reflect"
)

var valueReflectType = reflect.TypeOf((*Value)(nil)).Elem()
var unknownReflectType = reflect.TypeOf((**Unknown)(nil)).Elem()

// bindResolved turns a resolved value into an argument of type t.
func bindResolved(name string, t reflect.Type, v any) (reflect.Value, error) {
	if t == valueReflectType {
		if value, ok := v.(Value); ok {
			return reflect.ValueOf(value), nil
		}
		return reflect.ValueOf(Resolved(name, v)), nil
	}
	if v == nil {
		if isNillable(t) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, newArgumentError(name, fmt.Errorf("cannot use nil as %v", t))
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, newArgumentError(name, fmt.Errorf("cannot use %v as %v", rv.Type(), t))
	}
	return rv, nil
}

// bindUnresolved returns the marker standing in for name as an argument of type t.
// It reports false when t cannot hold a marker.
func bindUnresolved(name string, t reflect.Type) (reflect.Value, bool) {
	switch {
	case t == valueReflectType:
		return reflect.ValueOf(Unresolved(name)), true
	case unknownReflectType.AssignableTo(t):
		return reflect.ValueOf(&Unknown{name: name}), true
	case t.Kind() == reflect.Func:
		return unknownFunc(t, name), true
	default:
		return reflect.Value{}, false
	}
}
