package abi

// EntryType is the discriminant of an ABI entry.
type EntryType string

const (
	EntryStruct      EntryType = "struct"
	EntryEnum        EntryType = "enum"
	EntryEvent       EntryType = "event"
	EntryFunction    EntryType = "function"
	EntryConstructor EntryType = "constructor"
	EntryInterface   EntryType = "interface"
	EntryImpl        EntryType = "impl"
	EntryL1Handler   EntryType = "l1_handler"
)

// Event shapes.
const (
	EventKindStruct = "struct"
	EventKindEnum   = "enum"
)

// Param is a named, typed member, variant, input or output. Outputs carry no name.
type Param struct {
	Name string
	Type string
	// Kind is set for event members: key, data, nested or flat.
	Kind string
}

// Entry is one validated element of a contract ABI. Which fields are set
// depends on Type.
type Entry struct {
	Type            EntryType
	Name            string
	Members         []Param
	Variants        []Param
	Inputs          []Param
	Outputs         []Param
	Items           []Entry
	InterfaceName   string
	EventKind       string
	StateMutability string
}

func entryName(e Entry) string { return e.Name }
func paramName(p Param) string { return p.Name }
