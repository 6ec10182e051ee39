package paraminject

import (
	"fmt"
	"reflect"
	"strings"
)

var errorReflectType = reflect.TypeOf((*error)(nil)).Elem()

// Params may be embedded in a struct to declare parameter names through field tags.
// When a function passed to Fn without names accepts such a struct (or a pointer to it)
// as its only parameter, each field tagged with `inject:"name"` becomes a parameter,
// in field declaration order.
//
//	type indexParams struct {
//		paraminject.Params
//		Request *http.Request `inject:"request"`
//		Users   UserStore     `inject:"users"`
//	}
type Params struct{}

var _paramType = reflect.TypeOf(Params{})

// EmbedsParams checks whether the given type is a struct (or a pointer to a struct)
// embedding Params.
func EmbedsParams(o reflect.Type) bool {
	return embedsType(o, _paramType)
}

// Returns true if t embeds e
func embedsType(t, e reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		return embedsType(t.Elem(), e)
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == e {
			return true
		}
	}

	return false
}

// Callable is a function together with the ordered names of its parameters.
type Callable struct {
	fn     reflect.Value
	names  []string
	types  []reflect.Type
	fields []int        // struct field index per name, only set for Params functions
	params reflect.Type // Params struct argument type, possibly a pointer
	err    error
}

// Fn declares fn as a callable whose parameters are named, in order, by names.
// fn may return nothing, a value, an error, or a value and an error.
//
// An invalid declaration is not reported here but by every dispatch of the callable.
func Fn(fn any, names ...string) *Callable {
	c := &Callable{names: append([]string(nil), names...)}
	c.err = c.declare(fn)
	return c
}

func (c *Callable) declare(fn any) error {
	if fn == nil {
		return newInvalidInputError("can't dispatch on nil")
	}
	c.fn = reflect.ValueOf(fn)
	fType := c.fn.Type()
	if fType.Kind() != reflect.Func {
		return newInvalidInputError(fmt.Sprintf("can't dispatch on non-function %v (type %v)", fn, fType))
	}
	if c.fn.IsNil() {
		return newInvalidInputError(fmt.Sprintf("can't dispatch on nil function of type %v", fType))
	}
	if fType.IsVariadic() {
		return newInvalidInputError(fmt.Sprintf("can't dispatch on variadic function %v", fType))
	}
	if fType.NumOut() > 2 || (fType.NumOut() == 2 && fType.Out(1) != errorReflectType) {
		return newInvalidInputError(
			fmt.Sprintf("expected a function returning at most a value and an error, got %v", fType))
	}

	if len(c.names) == 0 && fType.NumIn() == 1 && EmbedsParams(fType.In(0)) {
		return c.declareParams(fType.In(0))
	}

	if len(c.names) != fType.NumIn() {
		return newInvalidInputError(fmt.Sprintf(
			"function %v takes %d parameters but %d names were declared", fType, fType.NumIn(), len(c.names)))
	}
	c.types = make([]reflect.Type, fType.NumIn())
	for i, name := range c.names {
		if strings.TrimSpace(name) == "" {
			return newInvalidInputError(fmt.Sprintf("parameter #%d of %v has an empty name", i, fType))
		}
		c.types[i] = fType.In(i)
	}
	return nil
}

func (c *Callable) declareParams(paramsType reflect.Type) error {
	c.params = paramsType
	structType := paramsType
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type == _paramType {
			continue
		}
		tag, ok := field.Tag.Lookup("inject")
		if !ok {
			continue
		}
		if !field.IsExported() {
			return newInvalidInputError(
				fmt.Sprintf("use inject tag on unsettable field %s of %v", field.Name, structType))
		}
		name := strings.TrimSpace(tag)
		if name == "" {
			return newInvalidInputError(
				fmt.Sprintf("field %s of %v has an empty inject tag", field.Name, structType))
		}
		c.names = append(c.names, name)
		c.types = append(c.types, field.Type)
		c.fields = append(c.fields, i)
	}
	return nil
}

// Parameters returns the ordered parameter names of the callable.
func (c *Callable) Parameters() []string {
	return append([]string(nil), c.names...)
}

// call invokes the function with one bound argument per parameter name.
func (c *Callable) call(args []reflect.Value) (any, error) {
	in := args
	if c.params != nil {
		in = []reflect.Value{c.buildParams(args)}
	}

	res := c.fn.Call(in)
	switch len(res) {
	case 0:
		return nil, nil
	case 1:
		if c.fn.Type().Out(0) == errorReflectType {
			return nil, asError(res[0])
		}
		return res[0].Interface(), nil
	default:
		return res[0].Interface(), asError(res[1])
	}
}

func (c *Callable) buildParams(args []reflect.Value) reflect.Value {
	var n, s reflect.Value
	if c.params.Kind() == reflect.Ptr {
		n = reflect.New(c.params.Elem())
		s = n.Elem()
	} else {
		n = reflect.New(c.params).Elem()
		s = n
	}
	for i, arg := range args {
		s.Field(c.fields[i]).Set(arg)
	}
	return n
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}
