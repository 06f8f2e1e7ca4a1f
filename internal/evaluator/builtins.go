package evaluator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/funvibe/dispatchlab/internal/typesystem"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*|[0-9]+)\}`)

// NewTemplateBuiltin builds an implementation from text templates.
// printTmpl, when not empty, is printed on every call. resultTmpl is
// converted to the signature's return type; Unit methods return Nil.
// Placeholders: {field} reads receiver state, {0}, {1}... read arguments,
// {type} is the receiver's concrete type.
func NewTemplateBuiltin(name string, sig typesystem.TFunc, printTmpl, resultTmpl string) *Builtin {
	return &Builtin{
		Name: name,
		Sig:  sig,
		Fn: func(e *Evaluator, self *Instance, args ...Object) (Object, error) {
			if printTmpl != "" {
				line, err := expand(name, printTmpl, self, args)
				if err != nil {
					return nil, err
				}
				e.Print("%s", line)
			}
			if typesystem.Equal(sig.ReturnType, typesystem.Unit) {
				return &Nil{}, nil
			}
			text, err := expand(name, resultTmpl, self, args)
			if err != nil {
				return nil, err
			}
			return Convert(text, sig.ReturnType)
		},
	}
}

func expand(owner, tmpl string, self *Instance, args []Object) (string, error) {
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		if n, err := strconv.Atoi(key); err == nil {
			if n < len(args) {
				return args[n].Inspect()
			}
		} else if key == "type" {
			return self.TypeName()
		} else if v, ok := self.Field(key); ok {
			return v.Inspect()
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: unknown placeholder %s", owner, m)
		}
		return m
	})
	return out, firstErr
}

// Placeholders lists the distinct placeholder names used by a template.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// QualifiedName joins a type and method name the way implementations are identified.
func QualifiedName(typeName, method string) string {
	return strings.Join([]string{typeName, method}, ".")
}
