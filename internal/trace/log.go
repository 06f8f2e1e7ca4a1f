package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/dispatchlab/internal/evaluator"
	"github.com/funvibe/dispatchlab/internal/scenario"
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// Log is the saved form of one run's events.
type Log struct {
	RunID    string   `yaml:"run_id"`
	Scenario string   `yaml:"scenario"`
	Events   []Record `yaml:"events"`
}

// Record is one CallEvent in a Log.
type Record struct {
	Seq      int                     `yaml:"seq"`
	Site     string                  `yaml:"site"`
	Kind     typesystem.DispatchKind `yaml:"kind"`
	Declared string                  `yaml:"declared"`
	Receiver string                  `yaml:"receiver"`
	Instance string                  `yaml:"instance"`
	Method   string                  `yaml:"method"`
	Impl     string                  `yaml:"impl"`
	Table    string                  `yaml:"table,omitempty"`
	Args     []string                `yaml:"args,omitempty"`
	Output   []string                `yaml:"output,omitempty"`
	Result   string                  `yaml:"result,omitempty"`
}

// NewLog captures a report.
func NewLog(r *scenario.Report) *Log {
	l := &Log{
		RunID:    r.RunID.String(),
		Scenario: r.Scenario,
		Events:   make([]Record, 0, len(r.Events)),
	}
	for _, ev := range r.Events {
		l.Events = append(l.Events, Record{
			Seq:      ev.Seq,
			Site:     ev.Site,
			Kind:     ev.Kind,
			Declared: ev.Declared,
			Receiver: ev.Receiver,
			Instance: ev.InstanceID.String(),
			Method:   ev.Method,
			Impl:     ev.Impl,
			Table:    ev.Table,
			Args:     ev.Args,
			Output:   ev.Output,
			Result:   ev.Result,
		})
	}
	return l
}

// CallEvents converts the records back to events.
func (l *Log) CallEvents() ([]evaluator.CallEvent, error) {
	out := make([]evaluator.CallEvent, 0, len(l.Events))
	for i, rec := range l.Events {
		id, err := uuid.Parse(rec.Instance)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: instance: %w", i, err)
		}
		out = append(out, evaluator.CallEvent{
			Seq:        rec.Seq,
			Site:       rec.Site,
			Kind:       rec.Kind,
			Declared:   rec.Declared,
			Receiver:   rec.Receiver,
			InstanceID: id,
			Method:     rec.Method,
			Impl:       rec.Impl,
			Table:      rec.Table,
			Args:       rec.Args,
			Output:     rec.Output,
			Result:     rec.Result,
		})
	}
	return out, nil
}

// Encode writes the log as YAML.
func (l *Log) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML log.
func Decode(r io.Reader) (*Log, error) {
	var l Log
	if err := yaml.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decoding trace: %w", err)
	}
	if _, err := uuid.Parse(l.RunID); err != nil {
		return nil, fmt.Errorf("decoding trace: run_id: %w", err)
	}
	return &l, nil
}

// ReadLog reads a YAML log from a file.
func ReadLog(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
