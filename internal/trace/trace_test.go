package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/dispatchlab/internal/config"
	"github.com/funvibe/dispatchlab/internal/evaluator"
	"github.com/funvibe/dispatchlab/internal/scenario"
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

func runBuiltin(t *testing.T, name string) *scenario.Report {
	t.Helper()
	p, err := scenario.Builtin(name)
	require.NoError(t, err)
	report, err := scenario.NewDriver().Run(p)
	require.NoError(t, err)
	return report
}

func TestRenderClassAnnotations(t *testing.T) {
	report := runBuiltin(t, config.ClassScenarioName)
	want, err := os.ReadFile(filepath.Join("testdata", "class.annotations"+config.GoldenFileExt))
	require.NoError(t, err)
	assert.Equal(t, string(want), Annotate(report.Events).Render())
}

func TestAnnotationsDeduplicate(t *testing.T) {
	report := runBuiltin(t, config.StructScenarioName)
	once := Annotate(report.Events)

	twice := Annotate(report.Events)
	for _, ev := range report.Events {
		twice.Add(ev)
	}
	assert.Equal(t, once.Render(), twice.Render())

	// Four collection elements of two types reach two implementations.
	sites := once.Sites()
	assert.Equal(t, []string{
		"Cat.getSpecies (vt:Cat: Animal witness)",
		"Dog.getSpecies (vt:Dog: Animal witness)",
	}, sites["runTests Animal.getSpecies"])
}

func TestTargetsListEveryCaller(t *testing.T) {
	a := Annotate(runBuiltin(t, config.ClassScenarioName).Events)
	assert.Equal(t, []string{
		"runTests Animal.makeSound",
		"testVTableCall Dog.makeSound",
	}, a.Targets()["PoodleDog.makeSound"])
}

func TestPolymorphicSites(t *testing.T) {
	a := Annotate(runBuiltin(t, config.ClassScenarioName).Events)
	// The direct getCurliness call has a single target and is left out.
	assert.Equal(t, []string{
		"runTests Animal.makeSound",
		"testProtocolCall Animal.makeSound",
		"testProtocolCall Animal.move",
		"testVTableCall Dog.getBreed",
		"testVTableCall Dog.makeSound",
		"testVTableCall Dog.move",
	}, a.Polymorphic())
}

func TestDestinationWithoutTable(t *testing.T) {
	ev := evaluator.CallEvent{Site: "main", Kind: typesystem.DispatchDirect, Declared: "A", Method: "m", Impl: "A.m"}
	assert.Equal(t, "A.m", Destination(ev))
	assert.Equal(t, "main A.m", SiteAddress(ev))
}

func TestEmptyRender(t *testing.T) {
	assert.Empty(t, New().Render())
}

func TestLogRoundTrip(t *testing.T) {
	report := runBuiltin(t, config.ClassScenarioName)

	var buf bytes.Buffer
	require.NoError(t, NewLog(report).Encode(&buf))
	assert.Contains(t, buf.String(), "kind: virtual")
	assert.Contains(t, buf.String(), "kind: capability")
	assert.Contains(t, buf.String(), "scenario: class")

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, report.RunID.String(), back.RunID)

	events, err := back.CallEvents()
	require.NoError(t, err)
	assert.Equal(t, report.Events, events)
	assert.Equal(t, Annotate(report.Events).Render(), Annotate(events).Render())
}

func TestReadLog(t *testing.T) {
	report := runBuiltin(t, config.StructScenarioName)
	path := filepath.Join(t.TempDir(), "struct.yaml")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, NewLog(report).Encode(f))
	require.NoError(t, f.Close())

	l, err := ReadLog(path)
	require.NoError(t, err)
	assert.Equal(t, config.StructScenarioName, l.Scenario)
	assert.Len(t, l.Events, len(report.Events))

	_, err = ReadLog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading trace")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad kind", "run_id: " + uuid.NewString() + "\nevents:\n  - kind: static\n", "unknown dispatch kind"},
		{"bad run id", "run_id: nope\n", "run_id"},
		{"not yaml", "run_id: [", "decoding trace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	l := &Log{RunID: uuid.NewString(), Events: []Record{{Instance: "not-a-uuid"}}}
	_, err := l.CallEvents()
	assert.ErrorContains(t, err, "events[0]: instance")
}
