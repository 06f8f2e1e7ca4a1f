package scenario

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/dispatchlab/internal/evaluator"
)

// maxDepth bounds nested procedure runs.
const maxDepth = 64

// Report is the observable result of one run.
type Report struct {
	RunID      uuid.UUID
	Scenario   string
	Transcript []string
	Events     []evaluator.CallEvent
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger that receives run and dispatch records.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithOutput streams printed lines to w as they are produced.
func WithOutput(w io.Writer) Option {
	return func(d *Driver) {
		if w != nil {
			d.out = w
		}
	}
}

// Driver runs programs. A Driver holds no per-run state and may be reused.
type Driver struct {
	logger *slog.Logger
	out    io.Writer
}

func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:    io.Discard,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run loads p and executes its steps in order. The first failure stops the
// run; dispatch errors are returned exactly as the evaluator produced them.
// The report covers everything that ran before the failure.
func (d *Driver) Run(p *Program) (*Report, error) {
	report := &Report{RunID: uuid.New(), Scenario: p.Name}
	logger := d.logger.With("scenario", p.Name, "run_id", report.RunID.String())

	st, err := Load(p)
	if err != nil {
		logger.Error("load failed", "error", err)
		return report, err
	}

	eval := evaluator.New(st)
	eval.Out = d.out
	eval.OnEvent = func(ev evaluator.CallEvent) {
		logger.Debug("dispatch",
			"seq", ev.Seq,
			"site", ev.Site,
			"kind", ev.Kind.String(),
			"impl", ev.Impl,
			"table", ev.Table,
			"instance", ev.InstanceID.String())
	}

	r := &run{
		eval:  eval,
		procs: make(map[string]*Procedure, len(p.Procedures)),
	}
	for i := range p.Procedures {
		r.procs[p.Procedures[i].Name] = &p.Procedures[i]
	}

	entry := p.Entry
	if entry == "" {
		entry = DefaultEntry
	}

	logger.Info("scenario started", "types", len(p.Types), "steps", len(p.Steps))
	err = r.exec(entry, evaluator.NewEnvironment(), p.Steps, 0)

	report.Transcript = eval.Transcript()
	report.Events = eval.Events()
	if err != nil {
		logger.Error("scenario aborted", "events", len(report.Events), "error", err)
		return report, err
	}
	logger.Info("scenario finished", "events", len(report.Events), "lines", len(report.Transcript))
	return report, nil
}

type run struct {
	eval  *evaluator.Evaluator
	procs map[string]*Procedure
}

func (r *run) exec(site string, env *evaluator.Environment, steps []Step, depth int) error {
	for i := range steps {
		if err := r.step(site, env, &steps[i], depth); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) step(site string, env *evaluator.Environment, s *Step, depth int) error {
	switch s.Op {
	case OpPrint:
		for _, line := range strings.Split(s.Text, "\n") {
			r.eval.Print("%s", line)
		}
		return nil

	case OpNew:
		fields := make(map[string]evaluator.Object, len(s.Fields))
		for name, raw := range s.Fields {
			obj, err := evaluator.ToObject(raw)
			if err != nil {
				return fmt.Errorf("new %s: field %s: %w", s.Type, name, err)
			}
			fields[name] = obj
		}
		inst, err := r.eval.NewInstance(s.Type, fields)
		if err != nil {
			return err
		}
		env.Set(s.Var, inst)
		return nil

	case OpUpcast:
		src, err := lookup(env, s.From)
		if err != nil {
			return err
		}
		ref, err := r.upcast(src, s.Type)
		if err != nil {
			return err
		}
		env.Set(s.Var, ref)
		return nil

	case OpBind:
		src, err := lookup(env, s.From)
		if err != nil {
			return err
		}
		x, err := r.bind(src, s.Capability)
		if err != nil {
			return err
		}
		env.Set(s.Var, x)
		return nil

	case OpCollect:
		list := &evaluator.List{}
		for _, name := range s.Items {
			src, err := lookup(env, name)
			if err != nil {
				return err
			}
			x, err := r.bind(src, s.Capability)
			if err != nil {
				return err
			}
			list.Elements = append(list.Elements, x)
		}
		env.Set(s.Var, list)
		return nil

	case OpCall:
		return r.call(site, env, s)

	case OpRun:
		if depth >= maxDepth {
			return fmt.Errorf("run %s: nesting deeper than %d", s.Proc, maxDepth)
		}
		proc, ok := r.procs[s.Proc]
		if !ok {
			return fmt.Errorf("run: unknown procedure %q", s.Proc)
		}
		src, err := lookup(env, s.Arg)
		if err != nil {
			return err
		}
		var arg evaluator.Object
		if r.eval.Symbols.CapabilityExists(proc.As) {
			arg, err = r.bind(src, proc.As)
		} else {
			arg, err = r.upcast(src, proc.As)
		}
		if err != nil {
			return err
		}
		scope := evaluator.NewEnvironment()
		scope.Set(proc.Param, arg)
		return r.exec(proc.Name, scope, proc.Body, depth+1)

	case OpForeach:
		src, err := lookup(env, s.From)
		if err != nil {
			return err
		}
		list, ok := src.(*evaluator.List)
		if !ok {
			return fmt.Errorf("foreach: %s is %s, not a list", s.From, src.Type())
		}
		for _, el := range list.Elements {
			scope := evaluator.NewEnclosedEnvironment(env)
			scope.Set(s.Var, el)
			if err := r.exec(site, scope, s.Body, depth); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown op %q", s.Op)
}

func (r *run) call(site string, env *evaluator.Environment, s *Step) error {
	if s.Site != "" {
		site = s.Site
	}
	target, err := lookup(env, s.Target)
	if err != nil {
		return err
	}
	args := make([]evaluator.Object, 0, len(s.Args))
	for i, raw := range s.Args {
		obj, err := evaluator.ToObject(raw)
		if err != nil {
			return fmt.Errorf("call %s: argument %d: %w", s.Method, i, err)
		}
		args = append(args, obj)
	}

	var result evaluator.Object
	switch s.Via {
	case ViaVirtual, ViaDirect:
		var ref *evaluator.BaseRef
		switch t := target.(type) {
		case *evaluator.BaseRef:
			ref = t
		case *evaluator.Instance:
			ref = r.eval.View(t)
		default:
			return fmt.Errorf("call %s: %s is %s; %s calls need a typed reference", s.Method, s.Target, target.Type(), s.Via)
		}
		if s.Via == ViaVirtual {
			result, err = r.eval.CallVirtual(site, ref, s.Method, args...)
		} else {
			result, err = r.eval.CallDirect(site, ref, s.Method, args...)
		}
	case ViaCapability:
		x, ok := target.(*evaluator.Existential)
		if !ok {
			return fmt.Errorf("call %s: %s is %s; bind it to a capability first", s.Method, s.Target, target.Type())
		}
		result, err = r.eval.Invoke(site, x, s.Method, args...)
	default:
		return fmt.Errorf("call %s: unknown idiom %q", s.Method, s.Via)
	}
	if err != nil {
		return err
	}

	if s.Var != "" {
		env.Set(s.Var, result)
	}
	if s.Format != "" {
		r.eval.Print("%s", strings.ReplaceAll(s.Format, "{result}", result.Inspect()))
	}
	return nil
}

// upcast produces a base-type view. Capability views cannot be turned back
// into typed references.
func (r *run) upcast(src evaluator.Object, typeName string) (*evaluator.BaseRef, error) {
	switch v := src.(type) {
	case *evaluator.Instance:
		return r.eval.Upcast(v, typeName)
	case *evaluator.BaseRef:
		return r.eval.Upcast(v.Value, typeName)
	}
	return nil, fmt.Errorf("cannot view %s as %s", src.Inspect(), typeName)
}

// bind produces a capability view. An existing view of the same capability
// is passed through unchanged, keeping the table it was bound with.
func (r *run) bind(src evaluator.Object, capability string) (*evaluator.Existential, error) {
	switch v := src.(type) {
	case *evaluator.Instance:
		return r.eval.BindCapability(v, capability)
	case *evaluator.BaseRef:
		return r.eval.BindCapability(v.Value, capability)
	case *evaluator.Existential:
		if v.Table.Capability.Name == capability {
			return v, nil
		}
		return r.eval.BindCapability(v.Value, capability)
	}
	return nil, fmt.Errorf("cannot bind %s to %s", src.Inspect(), capability)
}

func lookup(env *evaluator.Environment, name string) (evaluator.Object, error) {
	obj, ok := env.Get(name)
	if !ok {
		return nil, fmt.Errorf("undefined variable %q", name)
	}
	return obj, nil
}
