package paraminject

import (
	"fmt"
	"reflect"
)

// Caller is implemented by values that dispatch capabilities by name themselves.
type Caller interface {
	Call(capability string, args ...any) ([]any, error)
}

// Unknown stands in for a parameter no source provides under Dispatch.
// Invoking any capability on it fails with an *UnknownParameterError naming the parameter,
// so a callable only fails if it actually uses what it could not be given.
type Unknown struct {
	name string
}

var _ Caller = &Unknown{}

// Name returns the name of the parameter that could not be resolved.
func (u *Unknown) Name() string { return u.name }

// Call always fails with an *UnknownParameterError.
func (u *Unknown) Call(capability string, _ ...any) ([]any, error) {
	return nil, newUninjectedCallError(u.name, capability)
}

func (u *Unknown) String() string { return fmt.Sprintf("<uninjected %s>", u.name) }

// Value is either a resolved value or an unresolved parameter name.
// Declare a parameter as Value to receive either variant under Dispatch.
type Value struct {
	name     string
	value    any
	resolved bool
}

var _ Caller = Value{}

// Resolved returns a Value holding v for the parameter name. v may be nil.
func Resolved(name string, v any) Value {
	return Value{name: name, value: v, resolved: true}
}

// Unresolved returns a Value for a parameter name no source provides.
func Unresolved(name string) Value {
	return Value{name: name}
}

func (v Value) Name() string { return v.name }

func (v Value) IsResolved() bool { return v.resolved }

// Get returns the held value, or an *UnknownParameterError if unresolved.
func (v Value) Get() (any, error) {
	if !v.resolved {
		return nil, newUninjectedCallError(v.name, "Get")
	}
	return v.value, nil
}

// Call invokes capability on the held value, see the package level Call.
func (v Value) Call(capability string, args ...any) ([]any, error) {
	if !v.resolved {
		return nil, newUninjectedCallError(v.name, capability)
	}
	return Call(v.value, capability, args...)
}

// Call invokes the exported method named capability on target.
// A trailing error result of the method is returned as the error, other results are returned in order.
// Targets implementing Caller, such as *Unknown, handle the call themselves.
func Call(target any, capability string, args ...any) ([]any, error) {
	if caller, ok := target.(Caller); ok {
		return caller.Call(capability, args...)
	}
	if target == nil {
		return nil, newInvalidInputError(fmt.Sprintf("can't call capability %q on nil", capability))
	}
	method := reflect.ValueOf(target).MethodByName(capability)
	if !method.IsValid() {
		return nil, newInvalidInputError(fmt.Sprintf("%T has no capability %q", target, capability))
	}
	mType := method.Type()
	if len(args) != mType.NumIn() && !(mType.IsVariadic() && len(args) >= mType.NumIn()-1) {
		return nil, newInvalidInputError(fmt.Sprintf(
			"capability %q of %T takes %d arguments, got %d", capability, target, mType.NumIn(), len(args)))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var argType reflect.Type
		if mType.IsVariadic() && i >= mType.NumIn()-1 {
			argType = mType.In(mType.NumIn() - 1).Elem()
		} else {
			argType = mType.In(i)
		}
		if arg == nil {
			if !isNillable(argType) {
				return nil, newInvalidInputError(
					fmt.Sprintf("can't use nil as argument #%d (%v) of capability %q", i, argType, capability))
			}
			in[i] = reflect.Zero(argType)
			continue
		}
		in[i] = reflect.ValueOf(arg)
		if !in[i].Type().AssignableTo(argType) {
			return nil, newInvalidInputError(fmt.Sprintf(
				"can't use %v as argument #%d (%v) of capability %q", in[i].Type(), i, argType, capability))
		}
	}

	res := method.Call(in)
	var err error
	if n := mType.NumOut(); n > 0 && mType.Out(n-1) == errorReflectType {
		err = asError(res[n-1])
		res = res[:n-1]
	}
	out := make([]any, len(res))
	for i, r := range res {
		out[i] = r.Interface()
	}
	return out, err
}

// unknownFunc builds a function of type t standing in for the unresolved parameter name.
// Calling it returns the error as its trailing error result, or panics with it when t has none.
func unknownFunc(t reflect.Type, name string) reflect.Value {
	return reflect.MakeFunc(t, func(_ []reflect.Value) []reflect.Value {
		err := newUninjectedCallError(name, "call")
		n := t.NumOut()
		if n == 0 || t.Out(n-1) != errorReflectType {
			panic(err)
		}
		out := make([]reflect.Value, n)
		for i := 0; i < n-1; i++ {
			out[i] = reflect.Zero(t.Out(i))
		}
		errValue := reflect.New(errorReflectType).Elem()
		errValue.Set(reflect.ValueOf(err))
		out[n-1] = errValue
		return out
	})
}

func isNillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}
