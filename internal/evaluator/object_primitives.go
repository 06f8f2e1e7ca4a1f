package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/dispatchlab/internal/typesystem"
)

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType             { return INTEGER_OBJ }
func (i *Integer) Inspect() string              { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) RuntimeType() typesystem.Type { return typesystem.Int }

type String struct {
	Value string
}

func (s *String) Type() ObjectType             { return STRING_OBJ }
func (s *String) Inspect() string              { return s.Value }
func (s *String) RuntimeType() typesystem.Type { return typesystem.String }

// Nil is the result of a Unit-returning call.
type Nil struct{}

func (n *Nil) Type() ObjectType             { return NIL_OBJ }
func (n *Nil) Inspect() string              { return "()" }
func (n *Nil) RuntimeType() typesystem.Type { return typesystem.Unit }

// List is an ordered, possibly heterogeneous sequence.
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, el := range l.Elements {
		parts[i] = el.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (l *List) RuntimeType() typesystem.Type { return typesystem.TCon{Name: "List"} }

// ToObject converts a plain Go value (as decoded from YAML or written in
// a Go literal) to an Object.
func ToObject(v interface{}) (Object, error) {
	switch val := v.(type) {
	case nil:
		return &Nil{}, nil
	case Object:
		return val, nil
	case int:
		return &Integer{Value: int64(val)}, nil
	case int64:
		return &Integer{Value: val}, nil
	case string:
		return &String{Value: val}, nil
	}
	return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
}

// Zero returns the zero value of a field type: 0, "" or ().
func Zero(t typesystem.Type) (Object, error) {
	switch {
	case typesystem.Equal(t, typesystem.Unit):
		return &Nil{}, nil
	case typesystem.Equal(t, typesystem.Int):
		return &Integer{}, nil
	case typesystem.Equal(t, typesystem.String):
		return &String{}, nil
	}
	return nil, fmt.Errorf("type %s has no zero value", t)
}

// Convert parses text into an Object of the given type.
func Convert(text string, t typesystem.Type) (Object, error) {
	switch {
	case typesystem.Equal(t, typesystem.Unit):
		return &Nil{}, nil
	case typesystem.Equal(t, typesystem.Int):
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to Int", text)
		}
		return &Integer{Value: n}, nil
	case typesystem.Equal(t, typesystem.String):
		return &String{Value: text}, nil
	}
	return nil, fmt.Errorf("cannot convert %q to %s", text, t)
}
