package config

// ScriptFileExtensions are all recognized scenario script extensions
var ScriptFileExtensions = []string{".yaml", ".yml"}

// GoldenFileExt is the extension of expected-transcript files.
const GoldenFileExt = ".want"

// IsTestMode indicates if the program is running under go test.
// Set once by test setup; it disables colour in the CLI renderer.
var IsTestMode = false

// Built-in capability and method names
const (
	AnimalCapabilityName   = "Animal"
	MakeSoundMethodName    = "makeSound"
	MoveMethodName         = "move"
	GetBreedMethodName     = "getBreed"
	GetSpeciesMethodName   = "getSpecies"
	GetCurlinessMethodName = "getCurliness"
)

// Built-in type names
const (
	UnitTypeName      = "Unit"
	IntTypeName       = "Int"
	StringTypeName    = "String"
	DogTypeName       = "Dog"
	PoodleDogTypeName = "PoodleDog"
	CatTypeName       = "Cat"
)

// Built-in scenario names
const (
	ClassScenarioName  = "class"
	StructScenarioName = "struct"
)

// Call-site labels used by the built-in scenarios
const (
	ProtocolCallSite    = "testProtocolCall"
	VTableCallSite      = "testVTableCall"
	PolymorphicCallSite = "runTests"
)
