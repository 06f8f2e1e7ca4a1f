package evaluator

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// CallEvent records one executed call: where it was made, how it was
// resolved and what it produced.
type CallEvent struct {
	Seq        int
	Site       string
	Kind       typesystem.DispatchKind
	Declared   string // Static type at the call site: class or capability name
	Receiver   string // Concrete type of the value
	InstanceID uuid.UUID
	Method     string
	Impl       string // Identity of the implementation that ran
	Table      string // Symbol of the table the call went through; empty for direct calls
	Args       []string
	Output     []string
	Result     string
}

func (ev CallEvent) clone() CallEvent {
	out := ev
	out.Args = append([]string(nil), ev.Args...)
	out.Output = append([]string(nil), ev.Output...)
	return out
}

// String renders the event on one line, without the instance id.
func (ev CallEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s %s.%s -> %s(%s)",
		ev.Seq, ev.Site, ev.Kind, ev.Declared, ev.Method, ev.Impl, strings.Join(ev.Args, ", "))
	if ev.Table != "" {
		fmt.Fprintf(&b, " via %s", ev.Table)
	}
	if ev.Result != "" {
		fmt.Fprintf(&b, " = %s", ev.Result)
	}
	return b.String()
}
