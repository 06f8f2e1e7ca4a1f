// Package trace turns recorded dispatch events into call-site annotations
// and moves event logs in and out of YAML.
package trace

import (
	"sort"
	"strings"

	"github.com/funvibe/dispatchlab/internal/evaluator"
)

// Comment prefixes. A call site lists where it went (dst); an
// implementation lists where it was reached from (src).
const (
	DestinationPrefix = "BML_dst"
	SourcePrefix      = "BML_src"
)

// Annotations accumulates deduplicated comments per call site and per
// implementation. Adding the same event twice changes nothing.
type Annotations struct {
	sites   map[string]map[string]bool
	targets map[string]map[string]bool
}

func New() *Annotations {
	return &Annotations{
		sites:   make(map[string]map[string]bool),
		targets: make(map[string]map[string]bool),
	}
}

// Annotate builds annotations for a list of events.
func Annotate(events []evaluator.CallEvent) *Annotations {
	a := New()
	for _, ev := range events {
		a.Add(ev)
	}
	return a
}

// SiteAddress identifies the call expression an event came from:
// the enclosing routine and the statically named method.
func SiteAddress(ev evaluator.CallEvent) string {
	return ev.Site + " " + ev.Declared + "." + ev.Method
}

// Destination describes where an event landed, with the table it was
// loaded through when there was one.
func Destination(ev evaluator.CallEvent) string {
	if ev.Table == "" {
		return ev.Impl
	}
	return ev.Impl + " (vt:" + ev.Table + ")"
}

// Add records one event.
func (a *Annotations) Add(ev evaluator.CallEvent) {
	src := SiteAddress(ev)
	addComment(a.sites, src, Destination(ev))
	addComment(a.targets, ev.Impl, src)
}

func addComment(m map[string]map[string]bool, addr, comment string) {
	set, ok := m[addr]
	if !ok {
		set = make(map[string]bool)
		m[addr] = set
	}
	set[comment] = true
}

// Sites maps each call site to the sorted destinations observed from it.
func (a *Annotations) Sites() map[string][]string { return flatten(a.sites) }

// Targets maps each implementation to the sorted call sites that reached it.
func (a *Annotations) Targets() map[string][]string { return flatten(a.targets) }

// Polymorphic lists call sites that reached more than one implementation.
func (a *Annotations) Polymorphic() []string {
	var out []string
	for addr, set := range a.sites {
		impls := make(map[string]bool, len(set))
		for dst := range set {
			impls[strings.SplitN(dst, " ", 2)[0]] = true
		}
		if len(impls) > 1 {
			out = append(out, addr)
		}
	}
	sort.Strings(out)
	return out
}

// Render prints call sites first, then implementations, each sorted, with
// one comment line per address.
func (a *Annotations) Render() string {
	var b strings.Builder
	for _, group := range []struct {
		prefix   string
		comments map[string]map[string]bool
	}{
		{DestinationPrefix, a.sites},
		{SourcePrefix, a.targets},
	} {
		flat := flatten(group.comments)
		for _, addr := range sortedKeys(flat) {
			b.WriteString(addr)
			b.WriteString("\n  ")
			b.WriteString(group.prefix)
			b.WriteString(": ")
			b.WriteString(strings.Join(flat[addr], ", "))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func flatten(m map[string]map[string]bool) map[string][]string {
	out := make(map[string][]string, len(m))
	for addr, set := range m {
		list := make([]string, 0, len(set))
		for c := range set {
			list = append(list, c)
		}
		sort.Strings(list)
		out[addr] = list
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
