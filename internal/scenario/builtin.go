package scenario

import (
	"fmt"
	"sort"

	"github.com/funvibe/dispatchlab/internal/config"
)

var builtins = map[string]func() *Program{
	config.ClassScenarioName:  ClassProgram,
	config.StructScenarioName: StructProgram,
}

// Builtin returns a fresh copy of a built-in program.
func Builtin(name string) (*Program, error) {
	mk, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (available: %v)", name, Names())
	}
	return mk(), nil
}

// Names lists the built-in programs.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unit(name string) SigSpec { return SigSpec{Name: name} }

func returning(name, typ string) SigSpec { return SigSpec{Name: name, Returns: typ} }

func callStep(via, target, method string) Step {
	return Step{Op: OpCall, Via: via, Target: target, Method: method}
}

// ClassProgram exercises reference types: Dog with a PoodleDog subtype
// overriding every slot, an unrelated Cat, and Animal conformance attached
// to Dog and Cat after their definitions.
func ClassProgram() *Program {
	const (
		animal = config.AnimalCapabilityName
		dog    = config.DogTypeName
		poodle = config.PoodleDogTypeName
		cat    = config.CatTypeName
	)
	return &Program{
		Name:  config.ClassScenarioName,
		Entry: config.PolymorphicCallSite,
		Capabilities: []CapabilitySpec{{
			Name:    animal,
			Methods: []SigSpec{unit(config.MakeSoundMethodName), unit(config.MoveMethodName)},
		}},
		Types: []TypeSpec{
			{
				Name: dog,
				Methods: []MethodSpec{
					{Name: config.MakeSoundMethodName, Print: "Dog: Woof!"},
					{Name: config.MoveMethodName, Print: "Dog: Running on four legs"},
					{Name: config.GetBreedMethodName, Returns: config.StringTypeName, Result: "Unknown Breed"},
				},
			},
			{
				Name:   poodle,
				Base:   dog,
				Fields: []FieldSpec{{Name: "curliness", Type: config.IntTypeName, Default: 5}},
				Methods: []MethodSpec{
					{Name: config.MakeSoundMethodName, Kind: KindOverride, Print: "PoodleDog: Yip! Yip!"},
					{Name: config.MoveMethodName, Kind: KindOverride, Print: "PoodleDog: Proudly trotting"},
					{Name: config.GetBreedMethodName, Kind: KindOverride, Returns: config.StringTypeName, Result: "Poodle"},
					{Name: config.GetCurlinessMethodName, Kind: KindOwn, Returns: config.IntTypeName, Result: "{curliness}"},
				},
			},
			{
				Name: cat,
				Methods: []MethodSpec{
					{Name: config.MakeSoundMethodName, Print: "Cat: Meow!"},
					{Name: config.MoveMethodName, Print: "Cat: Walking gracefully"},
				},
			},
		},
		Conformances: []ConformanceSpec{
			{Type: dog, Capability: animal},
			{Type: cat, Capability: animal},
		},
		Procedures: []Procedure{
			{
				Name:  config.ProtocolCallSite,
				Param: "animal",
				As:    animal,
				Body: []Step{
					callStep(ViaCapability, "animal", config.MakeSoundMethodName),
					callStep(ViaCapability, "animal", config.MoveMethodName),
				},
			},
			{
				Name:  config.VTableCallSite,
				Param: "animal",
				As:    dog,
				Body: []Step{
					callStep(ViaVirtual, "animal", config.MakeSoundMethodName),
					callStep(ViaVirtual, "animal", config.MoveMethodName),
					{Op: OpCall, Via: ViaVirtual, Target: "animal", Method: config.GetBreedMethodName, Format: "Breed: {result}"},
				},
			},
		},
		Steps: []Step{
			{Op: OpPrint, Text: "Testing Protocol Witness Table indirect calls:"},
			{Op: OpNew, Var: "dogValue", Type: dog},
			{Op: OpBind, Var: "dog", From: "dogValue", Capability: animal},
			{Op: OpNew, Var: "catValue", Type: cat},
			{Op: OpBind, Var: "cat", From: "catValue", Capability: animal},
			{Op: OpRun, Proc: config.ProtocolCallSite, Arg: "dog"},
			{Op: OpRun, Proc: config.ProtocolCallSite, Arg: "cat"},

			{Op: OpPrint, Text: "\nTesting vtable indirect calls:"},
			{Op: OpNew, Var: "regularDog", Type: dog},
			{Op: OpRun, Proc: config.VTableCallSite, Arg: "regularDog"},
			{Op: OpNew, Var: "poodle", Type: poodle, Fields: map[string]interface{}{"curliness": 7}},
			{Op: OpRun, Proc: config.VTableCallSite, Arg: "poodle"},
			{Op: OpCall, Via: ViaDirect, Target: "poodle", Method: config.GetCurlinessMethodName, Var: "curliness"},

			{Op: OpNew, Var: "first", Type: dog},
			{Op: OpNew, Var: "second", Type: cat},
			{Op: OpNew, Var: "third", Type: poodle},
			{Op: OpCollect, Var: "animals", Capability: animal, Items: []string{"first", "second", "third"}},
			{Op: OpPrint, Text: "\nTesting polymorphic behavior:"},
			{Op: OpForeach, Var: "animal", From: "animals", Body: []Step{
				callStep(ViaCapability, "animal", config.MakeSoundMethodName),
			}},
		},
	}
}

// StructProgram exercises value types: Dog and Cat have no base and no
// virtual slots; every method is their own and Animal is satisfied
// through those methods alone.
func StructProgram() *Program {
	const (
		animal = config.AnimalCapabilityName
		dog    = config.DogTypeName
		cat    = config.CatTypeName
	)
	species := Step{Op: OpCall, Via: ViaCapability, Target: "animal", Method: config.GetSpeciesMethodName, Format: "Species: {result}"}
	return &Program{
		Name:  config.StructScenarioName,
		Entry: config.PolymorphicCallSite,
		Capabilities: []CapabilitySpec{{
			Name: animal,
			Methods: []SigSpec{
				unit(config.MakeSoundMethodName),
				unit(config.MoveMethodName),
				returning(config.GetSpeciesMethodName, config.StringTypeName),
			},
		}},
		Types: []TypeSpec{
			{
				Name:   dog,
				Fields: []FieldSpec{{Name: "breed", Type: config.StringTypeName, Default: "Unknown"}},
				Methods: []MethodSpec{
					{Name: config.MakeSoundMethodName, Kind: KindOwn, Print: "Dog: Woof!"},
					{Name: config.MoveMethodName, Kind: KindOwn, Print: "Dog: Running on four legs"},
					{Name: config.GetSpeciesMethodName, Kind: KindOwn, Returns: config.StringTypeName, Result: "Dog ({breed})"},
				},
			},
			{
				Name:   cat,
				Fields: []FieldSpec{{Name: "color", Type: config.StringTypeName, Default: "Unknown"}},
				Methods: []MethodSpec{
					{Name: config.MakeSoundMethodName, Kind: KindOwn, Print: "Cat: Meow!"},
					{Name: config.MoveMethodName, Kind: KindOwn, Print: "Cat: Walking gracefully"},
					{Name: config.GetSpeciesMethodName, Kind: KindOwn, Returns: config.StringTypeName, Result: "Cat ({color})"},
				},
			},
		},
		Conformances: []ConformanceSpec{
			{Type: dog, Capability: animal},
			{Type: cat, Capability: animal},
		},
		Procedures: []Procedure{{
			Name:  config.ProtocolCallSite,
			Param: "animal",
			As:    animal,
			Body: []Step{
				callStep(ViaCapability, "animal", config.MakeSoundMethodName),
				callStep(ViaCapability, "animal", config.MoveMethodName),
				species,
			},
		}},
		Steps: []Step{
			{Op: OpPrint, Text: "Testing Protocol Witness Table indirect calls with structs:"},
			{Op: OpNew, Var: "dog", Type: dog, Fields: map[string]interface{}{"breed": "Shiba"}},
			{Op: OpNew, Var: "cat", Type: cat, Fields: map[string]interface{}{"color": "Orange"}},
			{Op: OpPrint, Text: "\nTesting Dog:"},
			{Op: OpRun, Proc: config.ProtocolCallSite, Arg: "dog"},
			{Op: OpPrint, Text: "\nTesting Cat:"},
			{Op: OpRun, Proc: config.ProtocolCallSite, Arg: "cat"},

			{Op: OpNew, Var: "shiba", Type: dog, Fields: map[string]interface{}{"breed": "Shiba"}},
			{Op: OpNew, Var: "orange", Type: cat, Fields: map[string]interface{}{"color": "Orange"}},
			{Op: OpNew, Var: "golden", Type: dog, Fields: map[string]interface{}{"breed": "Golden Retriever"}},
			{Op: OpNew, Var: "black", Type: cat, Fields: map[string]interface{}{"color": "Black"}},
			{Op: OpCollect, Var: "animals", Capability: animal, Items: []string{"shiba", "orange", "golden", "black"}},
			{Op: OpPrint, Text: "\nTesting polymorphic behavior with structs:"},
			{Op: OpForeach, Var: "animal", From: "animals", Body: []Step{
				callStep(ViaCapability, "animal", config.MakeSoundMethodName),
				species,
			}},
		},
	}
}
