package evaluator

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

// NewEnclosedEnvironment creates a scope whose misses fall through to outer.
// Loop bodies get one per element so the loop variable never leaks.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Environment binds scenario variable names to values and views.
// A run is single-threaded; an Environment is not safe for concurrent use.
type Environment struct {
	store map[string]Object
	outer *Environment
}

func (e *Environment) Get(name string) (Object, bool) {
	if obj, ok := e.store[name]; ok {
		return obj, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return nil, false
}

// Set binds name in this scope, shadowing any outer binding.
func (e *Environment) Set(name string, val Object) {
	e.store[name] = val
}
