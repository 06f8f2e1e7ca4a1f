package scenario

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/dispatchlab/internal/config"
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

func readGolden(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name+config.GoldenFileExt))
	require.NoError(t, err)
	return string(data)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestGoldenTranscripts(t *testing.T) {
	for _, name := range Names() {
		name := name
		t.Run(name+"/builtin", func(t *testing.T) {
			p, err := Builtin(name)
			require.NoError(t, err)
			report, err := NewDriver().Run(p)
			require.NoError(t, err)
			assert.Equal(t, readGolden(t, name), joinLines(report.Transcript))
			assert.Equal(t, name, report.Scenario)
		})
		t.Run(name+"/script", func(t *testing.T) {
			p, err := LoadScript(filepath.Join("testdata", name+".yaml"))
			require.NoError(t, err)
			report, err := NewDriver().Run(p)
			require.NoError(t, err)
			assert.Equal(t, readGolden(t, name), joinLines(report.Transcript))
		})
	}
}

func TestScriptMatchesBuiltinEvents(t *testing.T) {
	for _, name := range Names() {
		builtin, err := Builtin(name)
		require.NoError(t, err)
		script, err := LoadScript(filepath.Join("testdata", name+".yaml"))
		require.NoError(t, err)

		a, err := NewDriver().Run(builtin)
		require.NoError(t, err)
		b, err := NewDriver().Run(script)
		require.NoError(t, err)

		require.Len(t, b.Events, len(a.Events), name)
		for i := range a.Events {
			// Instance ids differ between runs; everything else must not.
			a.Events[i].InstanceID = b.Events[i].InstanceID
			assert.Equal(t, a.Events[i], b.Events[i], "%s event %d", name, i)
		}
	}
}

func TestWithOutputStreamsTranscript(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewDriver(WithOutput(&buf)).Run(StructProgram())
	require.NoError(t, err)
	assert.Equal(t, readGolden(t, config.StructScenarioName), buf.String())
}

func TestClassProgramDispatch(t *testing.T) {
	report, err := NewDriver().Run(ClassProgram())
	require.NoError(t, err)

	var vtable, direct, loop []string
	ids := make(map[string]bool)
	for _, ev := range report.Events {
		switch ev.Site {
		case config.VTableCallSite:
			assert.Equal(t, typesystem.DispatchVirtual, ev.Kind)
			assert.Equal(t, config.DogTypeName, ev.Declared, "vtable calls go through a Dog reference")
			vtable = append(vtable, ev.Impl)
		case config.ProtocolCallSite:
			assert.Equal(t, typesystem.DispatchCapability, ev.Kind)
			assert.Equal(t, config.AnimalCapabilityName, ev.Declared)
		case config.PolymorphicCallSite:
			if ev.Kind == typesystem.DispatchDirect {
				direct = append(direct, ev.Impl+"="+ev.Result)
				continue
			}
			loop = append(loop, ev.Impl)
			ids[ev.InstanceID.String()] = true
		default:
			t.Errorf("unexpected site %q", ev.Site)
		}
	}

	assert.Equal(t, []string{
		"Dog.makeSound", "Dog.move", "Dog.getBreed",
		"PoodleDog.makeSound", "PoodleDog.move", "PoodleDog.getBreed",
	}, vtable)
	assert.Equal(t, []string{"PoodleDog.getCurliness=7"}, direct)
	assert.Equal(t, []string{"Dog.makeSound", "Cat.makeSound", "PoodleDog.makeSound"}, loop)
	assert.Len(t, ids, 3, "each collection element runs on its own instance")
}

func TestClassProgramTables(t *testing.T) {
	report, err := NewDriver().Run(ClassProgram())
	require.NoError(t, err)

	tables := make(map[string]string)
	for _, ev := range report.Events {
		tables[ev.Impl] = ev.Table
	}
	assert.Equal(t, "Dog: Animal witness", tables["Dog.makeSound"])
	assert.Equal(t, "Cat: Animal witness", tables["Cat.makeSound"])
	// Poodle reaches makeSound both ways; the last call is the collection loop.
	assert.Equal(t, "PoodleDog: Animal witness", tables["PoodleDog.makeSound"])
	assert.Equal(t, "PoodleDog vtable", tables["PoodleDog.getBreed"])
	assert.Empty(t, tables["PoodleDog.getCurliness"])
}

func TestStructProgramUsesOwnMethods(t *testing.T) {
	report, err := NewDriver().Run(StructProgram())
	require.NoError(t, err)
	for _, ev := range report.Events {
		assert.Equal(t, typesystem.DispatchCapability, ev.Kind, ev.String())
	}
	last := report.Events[len(report.Events)-1]
	assert.Equal(t, "Cat.getSpecies", last.Impl)
	assert.Equal(t, "Cat (Black)", last.Result)
}

func TestStructTypesHaveNoSlots(t *testing.T) {
	p := StructProgram()
	p.Steps = []Step{
		{Op: OpNew, Var: "dog", Type: config.DogTypeName},
		{Op: OpCall, Via: ViaVirtual, Target: "dog", Method: config.MakeSoundMethodName},
	}
	_, err := NewDriver().Run(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, typesystem.ErrUnknownSlot))
}

func TestRunAbortsOnUnknownSlot(t *testing.T) {
	p := ClassProgram()
	p.Steps = []Step{
		{Op: OpPrint, Text: "before"},
		{Op: OpNew, Var: "poodle", Type: config.PoodleDogTypeName},
		{Op: OpUpcast, Var: "ref", From: "poodle", Type: config.DogTypeName},
		{Op: OpCall, Via: ViaVirtual, Target: "ref", Method: config.GetCurlinessMethodName},
		{Op: OpPrint, Text: "after"},
	}
	report, err := NewDriver().Run(p)
	require.Error(t, err)

	slotErr, ok := err.(*typesystem.UnknownSlotError)
	require.True(t, ok, "dispatch errors are returned unwrapped, got %T", err)
	assert.Equal(t, config.DogTypeName, slotErr.Type)
	assert.Equal(t, config.GetCurlinessMethodName, slotErr.Slot)
	assert.Equal(t, []string{"before"}, report.Transcript)
}

func TestDirectCallThroughBaseReferenceFails(t *testing.T) {
	p := ClassProgram()
	p.Steps = []Step{
		{Op: OpNew, Var: "poodle", Type: config.PoodleDogTypeName},
		{Op: OpUpcast, Var: "ref", From: "poodle", Type: config.DogTypeName},
		{Op: OpCall, Via: ViaDirect, Target: "ref", Method: config.GetCurlinessMethodName},
	}
	_, err := NewDriver().Run(p)
	var methodErr *typesystem.UnknownMethodError
	require.ErrorAs(t, err, &methodErr)
	assert.Equal(t, config.DogTypeName, methodErr.Type)
}

func rockProgram() *Program {
	p := ClassProgram()
	p.Types = append(p.Types, TypeSpec{
		Name:    "Rock",
		Methods: []MethodSpec{{Name: config.MakeSoundMethodName, Print: "..."}},
	})
	return p
}

func TestRunAbortsOnNonConformingBind(t *testing.T) {
	p := rockProgram()
	p.Steps = []Step{
		{Op: OpNew, Var: "rock", Type: "Rock"},
		{Op: OpBind, Var: "animal", From: "rock", Capability: config.AnimalCapabilityName},
	}
	_, err := NewDriver().Run(p)
	nc, ok := err.(*typesystem.NonConformingTypeError)
	require.True(t, ok, "got %T %v", err, err)
	assert.Equal(t, "Rock", nc.Type)
	assert.Equal(t, []string{config.MoveMethodName}, nc.Missing)
}

func TestDeclaredConformanceCheckedAtLoad(t *testing.T) {
	p := rockProgram()
	p.Conformances = append(p.Conformances, ConformanceSpec{Type: "Rock", Capability: config.AnimalCapabilityName})

	report, err := NewDriver().Run(p)
	assert.True(t, errors.Is(err, typesystem.ErrNonConformingType), "got %v", err)
	assert.Empty(t, report.Transcript, "no step runs when a declaration is broken")
}

func TestRetroactiveConformanceThroughBase(t *testing.T) {
	// PoodleDog never declares Animal; Dog's declaration covers it.
	p := ClassProgram()
	p.Steps = []Step{
		{Op: OpNew, Var: "poodle", Type: config.PoodleDogTypeName},
		{Op: OpRun, Proc: config.ProtocolCallSite, Arg: "poodle"},
	}
	report, err := NewDriver().Run(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"PoodleDog: Yip! Yip!", "PoodleDog: Proudly trotting"}, report.Transcript)
}

func TestCapabilityViewKeepsItsTable(t *testing.T) {
	p := ClassProgram()
	p.Steps = []Step{
		{Op: OpNew, Var: "dog", Type: config.DogTypeName},
		{Op: OpBind, Var: "animal", From: "dog", Capability: config.AnimalCapabilityName},
		{Op: OpBind, Var: "again", From: "animal", Capability: config.AnimalCapabilityName},
		{Op: OpCall, Via: ViaCapability, Target: "again", Method: config.MoveMethodName},
	}
	report, err := NewDriver().Run(p)
	require.NoError(t, err)
	require.Len(t, report.Events, 1)
	assert.Equal(t, "Dog: Animal witness", report.Events[0].Table)
}

func TestRunScriptErrors(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  string
	}{
		{"undefined variable", []Step{{Op: OpCall, Via: ViaVirtual, Target: "ghost", Method: "move"}}, `undefined variable "ghost"`},
		{"capability call on instance", []Step{
			{Op: OpNew, Var: "dog", Type: config.DogTypeName},
			{Op: OpCall, Via: ViaCapability, Target: "dog", Method: "move"},
		}, "bind it to a capability first"},
		{"foreach over instance", []Step{
			{Op: OpNew, Var: "dog", Type: config.DogTypeName},
			{Op: OpForeach, Var: "x", From: "dog"},
		}, "not a list"},
		{"upcast capability view", []Step{
			{Op: OpNew, Var: "dog", Type: config.DogTypeName},
			{Op: OpBind, Var: "animal", From: "dog", Capability: config.AnimalCapabilityName},
			{Op: OpUpcast, Var: "ref", From: "animal", Type: config.DogTypeName},
		}, "cannot view"},
		{"upcast unrelated", []Step{
			{Op: OpNew, Var: "cat", Type: config.CatTypeName},
			{Op: OpUpcast, Var: "ref", From: "cat", Type: config.DogTypeName},
		}, "type mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ClassProgram()
			p.Steps = tt.steps
			_, err := NewDriver().Run(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRecursiveProcedureIsBounded(t *testing.T) {
	p := ClassProgram()
	p.Procedures = append(p.Procedures, Procedure{
		Name: "loop", Param: "x", As: config.DogTypeName,
		Body: []Step{{Op: OpRun, Proc: "loop", Arg: "x"}},
	})
	p.Steps = []Step{
		{Op: OpNew, Var: "dog", Type: config.DogTypeName},
		{Op: OpRun, Proc: "loop", Arg: "dog"},
	}
	_, err := NewDriver().Run(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting deeper than")
}

func TestLoadRejectsBadTemplates(t *testing.T) {
	p := ClassProgram()
	p.Types[0].Methods[0].Print = "Dog: {volume}"
	_, err := NewDriver().Run(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder {volume} names no field")

	p = ClassProgram()
	p.Types[0].Methods[0].Print = "Dog: {0}"
	_, err = NewDriver().Run(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 0 parameters")
}

func TestDriverLogsDispatch(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	report, err := NewDriver(WithLogger(logger)).Run(ClassProgram())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=\"scenario started\"")
	assert.Contains(t, out, "run_id="+report.RunID.String())
	assert.Contains(t, out, "impl=PoodleDog.makeSound")
	assert.Contains(t, out, "kind=virtual")
	assert.Equal(t, len(report.Events), strings.Count(out, "msg=dispatch"))
}

func TestBuiltinLookup(t *testing.T) {
	assert.Equal(t, []string{config.ClassScenarioName, config.StructScenarioName}, Names())

	_, err := Builtin("enum")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scenario")

	a, _ := Builtin(config.ClassScenarioName)
	a.Steps = nil
	b, _ := Builtin(config.ClassScenarioName)
	assert.NotEmpty(t, b.Steps, "each call returns a fresh program")
}

func TestRunIDsAreDistinct(t *testing.T) {
	d := NewDriver()
	a, err := d.Run(StructProgram())
	require.NoError(t, err)
	b, err := d.Run(StructProgram())
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestParseScriptValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "steps: [{op: print}]", "name is required"},
		{"no steps", "name: x", "no steps defined"},
		{"unknown op", "name: x\nsteps: [{op: jump}]", `steps[0]: unknown op "jump"`},
		{"bad via", "name: x\nsteps: [{op: call, target: a, method: m, via: dynamic}]", "via must be"},
		{"missing var", "name: x\nsteps: [{op: new, type: Dog}]", "new: var is required"},
		{"base order", "name: x\ntypes: [{name: B, base: A}, {name: A}]\nsteps: [{op: print}]", `base "A" must be declared before it`},
		{"duplicate type", "name: x\ntypes: [{name: A}, {name: A}]\nsteps: [{op: print}]", `duplicate type "A"`},
		{"bad kind", "name: x\ntypes: [{name: A, methods: [{name: m, kind: static}]}]\nsteps: [{op: print}]", `unknown kind "static"`},
		{"conformance type", "name: x\ncapabilities: [{name: C, methods: [{name: m}]}]\nconformances: [{type: A, capability: C}]\nsteps: [{op: print}]", `unknown type "A"`},
		{"empty capability", "name: x\ncapabilities: [{name: C}]\nsteps: [{op: print}]", "no methods"},
		{"unknown proc", "name: x\nsteps: [{op: run, proc: p, arg: a}]", `unknown procedure "p"`},
		{"nested body", "name: x\nsteps: [{op: foreach, var: v, from: l, body: [{op: bind, var: x}]}]", "steps[0].body[0]: bind: from is required"},
		{"bad yaml", "name: [", "parsing test.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.yaml), "test.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFieldWithoutDefaultStartsAtZero(t *testing.T) {
	script := `name: box
types:
  - name: Box
    fields:
      - {name: size, type: Int}
      - {name: label, type: String}
    methods:
      - {name: describe, returns: String, result: "size={size} label=[{label}]"}
steps:
  - {op: new, var: box, type: Box}
  - {op: call, via: virtual, target: box, method: describe, format: "{result}"}
`
	p, err := ParseScript([]byte(script), "box.yaml")
	require.NoError(t, err)
	report, err := NewDriver().Run(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"size=0 label=[]"}, report.Transcript)
}

func TestLoadScriptMissingFile(t *testing.T) {
	_, err := LoadScript(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading script")
}
