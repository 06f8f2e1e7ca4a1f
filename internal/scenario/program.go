// Package scenario drives the dispatch model with literal programs.
//
// A Program declares capabilities, types and conformances, then lists the
// steps to run against them. Programs are either built in (see Builtin) or
// read from YAML scripts:
//
//	name: demo
//	capabilities:
//	  - name: Animal
//	    methods:
//	      - name: makeSound
//	types:
//	  - name: Dog
//	    methods:
//	      - name: makeSound
//	        print: "Dog: Woof!"
//	conformances:
//	  - type: Dog
//	    capability: Animal
//	steps:
//	  - op: new
//	    var: dog
//	    type: Dog
//	  - op: call
//	    via: virtual
//	    target: dog
//	    method: makeSound
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Method kinds. A method without a kind is virtual on a root type and an
// override on a subtype when the base already has a slot of that name.
const (
	KindVirtual  = "virtual"
	KindOverride = "override"
	KindOwn      = "own"
)

// Step operations.
const (
	OpPrint   = "print"
	OpNew     = "new"
	OpUpcast  = "upcast"
	OpBind    = "bind"
	OpCall    = "call"
	OpCollect = "collect"
	OpForeach = "foreach"
	OpRun     = "run"
)

// Call idioms accepted by OpCall.
const (
	ViaVirtual    = "virtual"
	ViaCapability = "capability"
	ViaDirect     = "direct"
)

// DefaultEntry labels call sites of top-level steps when Program.Entry is empty.
const DefaultEntry = "main"

// Program is one literal scenario.
type Program struct {
	Name string `yaml:"name"`

	// Entry names the top-level routine; it is the call-site label of
	// calls made directly from Steps.
	Entry string `yaml:"entry,omitempty"`

	Capabilities []CapabilitySpec `yaml:"capabilities"`

	// Types are defined in order; a base must precede its subtypes.
	Types []TypeSpec `yaml:"types"`

	// Conformances are declared capability edges. They are checked after
	// every type is defined, so they may name any type in the program.
	Conformances []ConformanceSpec `yaml:"conformances,omitempty"`

	// Procedures are reusable step lists taking one converted argument.
	Procedures []Procedure `yaml:"procedures,omitempty"`

	Steps []Step `yaml:"steps"`
}

// CapabilitySpec declares a capability and its method signatures.
type CapabilitySpec struct {
	Name    string    `yaml:"name"`
	Methods []SigSpec `yaml:"methods"`
}

// SigSpec is a method shape. Types are named; an empty return is Unit.
type SigSpec struct {
	Name    string   `yaml:"name"`
	Params  []string `yaml:"params,omitempty"`
	Returns string   `yaml:"returns,omitempty"`
}

// TypeSpec declares a concrete type.
type TypeSpec struct {
	Name    string       `yaml:"name"`
	Base    string       `yaml:"base,omitempty"`
	Fields  []FieldSpec  `yaml:"fields,omitempty"`
	Methods []MethodSpec `yaml:"methods,omitempty"`
}

// FieldSpec declares per-instance state. Without a default the field starts
// at its type's zero value.
type FieldSpec struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Default interface{} `yaml:"default,omitempty"`
}

// MethodSpec declares a templated implementation.
//
// Print is emitted on every call and Result is converted to the return
// type. Both may use {field}, {type} and positional {0}, {1}... placeholders.
type MethodSpec struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind,omitempty"`
	Params  []string `yaml:"params,omitempty"`
	Returns string   `yaml:"returns,omitempty"`
	Print   string   `yaml:"print,omitempty"`
	Result  string   `yaml:"result,omitempty"`
}

// ConformanceSpec records that Type implements Capability.
type ConformanceSpec struct {
	Type       string `yaml:"type"`
	Capability string `yaml:"capability"`
}

// Procedure is a named step list. Its argument is converted to As before
// the body runs: a capability name binds a capability view, a type name
// upcasts to a base-type view.
type Procedure struct {
	Name  string `yaml:"name"`
	Param string `yaml:"param"`
	As    string `yaml:"as"`
	Body  []Step `yaml:"body"`
}

// Step is one scenario instruction. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// print
	Text string `yaml:"text,omitempty"`

	// Var receives the step's value (new, upcast, bind, collect, call)
	// or names the loop variable (foreach).
	Var string `yaml:"var,omitempty"`

	// new: concrete type; upcast: declared type.
	Type   string                 `yaml:"type,omitempty"`
	Fields map[string]interface{} `yaml:"fields,omitempty"`

	// upcast, bind: source variable; foreach: list variable.
	From string `yaml:"from,omitempty"`

	// bind, collect
	Capability string   `yaml:"capability,omitempty"`
	Items      []string `yaml:"items,omitempty"`

	// call
	Via    string        `yaml:"via,omitempty"`
	Target string        `yaml:"target,omitempty"`
	Method string        `yaml:"method,omitempty"`
	Args   []interface{} `yaml:"args,omitempty"`
	Site   string        `yaml:"site,omitempty"`
	// Format prints the call's result; {result} is replaced by it.
	Format string `yaml:"format,omitempty"`

	// run
	Proc string `yaml:"proc,omitempty"`
	Arg  string `yaml:"arg,omitempty"`

	// foreach
	Body []Step `yaml:"body,omitempty"`
}

// LoadScript reads and parses a YAML scenario script.
func LoadScript(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return ParseScript(data, path)
}

// ParseScript parses scenario YAML from bytes.
// The path argument is used only for error messages.
func ParseScript(data []byte, path string) (*Program, error) {
	var p Program
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := p.Validate(path); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the program for structural errors. Name resolution
// against defined types and capabilities happens when the program is loaded.
func (p *Program) Validate(path string) error {
	if p.Name == "" {
		return fmt.Errorf("%s: name is required", path)
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("%s: no steps defined", path)
	}

	seenCaps := make(map[string]bool)
	for i, c := range p.Capabilities {
		if c.Name == "" {
			return fmt.Errorf("%s: capabilities[%d]: name is required", path, i)
		}
		if seenCaps[c.Name] {
			return fmt.Errorf("%s: capabilities[%d]: duplicate capability %q", path, i, c.Name)
		}
		seenCaps[c.Name] = true
		if len(c.Methods) == 0 {
			return fmt.Errorf("%s: capabilities[%d] (%s): no methods", path, i, c.Name)
		}
		for j, m := range c.Methods {
			if m.Name == "" {
				return fmt.Errorf("%s: capabilities[%d].methods[%d]: name is required", path, i, j)
			}
		}
	}

	seenTypes := make(map[string]bool)
	for i, t := range p.Types {
		if t.Name == "" {
			return fmt.Errorf("%s: types[%d]: name is required", path, i)
		}
		if seenTypes[t.Name] {
			return fmt.Errorf("%s: types[%d]: duplicate type %q", path, i, t.Name)
		}
		if t.Base != "" && !seenTypes[t.Base] {
			return fmt.Errorf("%s: types[%d] (%s): base %q must be declared before it", path, i, t.Name, t.Base)
		}
		seenTypes[t.Name] = true
		for j, f := range t.Fields {
			if f.Name == "" || f.Type == "" {
				return fmt.Errorf("%s: types[%d].fields[%d]: name and type are required", path, i, j)
			}
		}
		for j, m := range t.Methods {
			if m.Name == "" {
				return fmt.Errorf("%s: types[%d].methods[%d]: name is required", path, i, j)
			}
			switch m.Kind {
			case "", KindVirtual, KindOverride, KindOwn:
			default:
				return fmt.Errorf("%s: types[%d].methods[%d] (%s): unknown kind %q", path, i, j, m.Name, m.Kind)
			}
		}
	}

	for i, c := range p.Conformances {
		if !seenTypes[c.Type] {
			return fmt.Errorf("%s: conformances[%d]: unknown type %q", path, i, c.Type)
		}
		if !seenCaps[c.Capability] {
			return fmt.Errorf("%s: conformances[%d]: unknown capability %q", path, i, c.Capability)
		}
	}

	procs := make(map[string]bool)
	for i, pr := range p.Procedures {
		if pr.Name == "" || pr.Param == "" || pr.As == "" {
			return fmt.Errorf("%s: procedures[%d]: name, param and as are required", path, i)
		}
		if procs[pr.Name] {
			return fmt.Errorf("%s: procedures[%d]: duplicate procedure %q", path, i, pr.Name)
		}
		procs[pr.Name] = true
	}
	for i, pr := range p.Procedures {
		if err := validateSteps(fmt.Sprintf("%s: procedures[%d].body", path, i), pr.Body, procs); err != nil {
			return err
		}
	}
	return validateSteps(path+": steps", p.Steps, procs)
}

func validateSteps(prefix string, steps []Step, procs map[string]bool) error {
	for i, s := range steps {
		at := fmt.Sprintf("%s[%d]", prefix, i)
		var missing string
		switch s.Op {
		case OpPrint:
		case OpNew:
			missing = firstMissing(s.Var, "var", s.Type, "type")
		case OpUpcast:
			missing = firstMissing(s.Var, "var", s.From, "from", s.Type, "type")
		case OpBind:
			missing = firstMissing(s.Var, "var", s.From, "from", s.Capability, "capability")
		case OpCollect:
			missing = firstMissing(s.Var, "var", s.Capability, "capability")
		case OpCall:
			missing = firstMissing(s.Target, "target", s.Method, "method")
			switch s.Via {
			case ViaVirtual, ViaCapability, ViaDirect:
			default:
				return fmt.Errorf("%s: call: via must be %s, %s or %s, got %q",
					at, ViaVirtual, ViaCapability, ViaDirect, s.Via)
			}
		case OpRun:
			missing = firstMissing(s.Proc, "proc", s.Arg, "arg")
			if missing == "" && !procs[s.Proc] {
				return fmt.Errorf("%s: run: unknown procedure %q", at, s.Proc)
			}
		case OpForeach:
			missing = firstMissing(s.Var, "var", s.From, "from")
			if missing == "" {
				if err := validateSteps(at+".body", s.Body, procs); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("%s: unknown op %q", at, s.Op)
		}
		if missing != "" {
			return fmt.Errorf("%s: %s: %s is required", at, s.Op, missing)
		}
	}
	return nil
}

// firstMissing takes (value, name) pairs and returns the first name whose value is empty.
func firstMissing(pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i] == "" {
			return pairs[i+1]
		}
	}
	return ""
}
