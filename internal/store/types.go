package store

// ContractID is a type-safe identifier for contracts.
type ContractID int64

// TypeID is a type-safe identifier for named types.
type TypeID int64

// FunctionID is a type-safe identifier for functions.
type FunctionID int64

// TypeKind represents the kind of a named type.
type TypeKind string

const (
	TypeKindStruct TypeKind = "struct"
	TypeKindEnum   TypeKind = "enum"
	TypeKindEvent  TypeKind = "event"
)

// FunctionKind represents how a function is exposed by the contract.
type FunctionKind string

const (
	FunctionKindExternal    FunctionKind = "function"
	FunctionKindConstructor FunctionKind = "constructor"
	FunctionKindL1Handler   FunctionKind = "l1_handler"
)

// ParamDirection distinguishes function inputs from outputs.
type ParamDirection string

const (
	DirectionInput  ParamDirection = "input"
	DirectionOutput ParamDirection = "output"
)

// TagSubject names the table a tag points into.
type TagSubject string

const (
	SubjectType     TagSubject = "type"
	SubjectFunction TagSubject = "function"
)

// Contract represents one indexed ABI file.
type Contract struct {
	ID            ContractID `json:"id"`
	Path          string     `json:"path"` // Relative to the project root
	Name          string     `json:"name"`
	SizeBytes     int64      `json:"size_bytes"`
	ParseError    string     `json:"parse_error,omitempty"`
	ABIJSON       string     `json:"-"`
	TypeCount     int        `json:"type_count"`
	FunctionCount int        `json:"function_count"`
}

// Type represents a struct, enum or event.
type Type struct {
	ID         TypeID     `json:"id"`
	ContractID ContractID `json:"contract_id"`
	Name       string     `json:"name"`
	Kind       TypeKind   `json:"kind"`
	EventKind  string     `json:"event_kind,omitempty"` // struct or enum, events only
	Members    []Member   `json:"members,omitempty"`
}

// Member is a struct member, enum variant or event field.
type Member struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Type     string `json:"type"` // Canonical type string
}

// Function represents an external function, interface item, constructor or l1 handler.
type Function struct {
	ID              FunctionID   `json:"id"`
	ContractID      ContractID   `json:"contract_id"`
	Name            string       `json:"name"`
	Kind            FunctionKind `json:"kind"`
	InterfaceName   string       `json:"interface_name,omitempty"`
	StateMutability string       `json:"state_mutability,omitempty"`
	Inputs          []Param      `json:"inputs"`
	Outputs         []Param      `json:"outputs"`
}

// Param is a function input or output.
type Param struct {
	Position int    `json:"position"`
	Name     string `json:"name,omitempty"` // Outputs are unnamed
	Type     string `json:"type"`
}

// Impl binds an impl name to its interface.
type Impl struct {
	ContractID    ContractID `json:"contract_id"`
	Name          string     `json:"name"`
	InterfaceName string     `json:"interface_name"`
}

// TypeRef is a direct reference from one named type to another.
type TypeRef struct {
	SourceID   TypeID   `json:"source_id"`
	TargetID   TypeID   `json:"target_id"`
	TargetName string   `json:"target_name"`
	TargetKind TypeKind `json:"target_kind"`
}

// Tag represents a tag on a type or function.
type Tag struct {
	Subject   TagSubject `json:"subject"`
	SubjectID int64      `json:"subject_id"`
	Tag       string     `json:"tag"`    // e.g., "mutability:view", "unreferenced"
	Reason    string     `json:"reason"` // Why this tag was applied
}

// SearchResult is a type matched by SearchTypes.
type SearchResult struct {
	TypeID       TypeID     `json:"type_id"`
	Name         string     `json:"name"`
	Kind         TypeKind   `json:"kind"`
	ContractID   ContractID `json:"contract_id"`
	ContractPath string     `json:"contract_path"`
}
