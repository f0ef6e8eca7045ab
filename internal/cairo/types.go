// Package cairo models Cairo ABI types and resolves Cairo type strings into them.
//
// Scalar and wrapper types are plain values. Structs, enums and events are
// named nodes handed out by a Registry: every reference to a named type
// points at the single node the registry owns, so filling a struct's members
// later is visible through every reference taken before.
package cairo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrAlreadyFilled is returned when a named type's members are set twice.
var ErrAlreadyFilled = errors.New("members already filled")

// Members holds named member types in declaration order.
type Members = orderedmap.OrderedMap[string, Type]

// NewMembers returns an empty member list.
func NewMembers() *Members {
	return orderedmap.New[string, Type]()
}

// Type is a resolved Cairo type.
type Type interface {
	// String renders the canonical Cairo type string.
	String() string
	isType()
}

// Named is a type registered under a name: a struct, enum or event.
type Named interface {
	Type
	TypeName() string
	Kind() Kind
}

// Kind classifies named types.
type Kind string

const (
	KindStruct Kind = "struct"
	KindEnum   Kind = "enum"
	KindEvent  Kind = "event"
)

// Felt is the field element type. Addresses, class hashes and bytes31 resolve to it as well.
type Felt struct{}

// Bool is core::bool.
type Bool struct{}

// Unit is the empty tuple ().
type Unit struct{}

// Uint is an unsigned integer of the given width.
type Uint struct {
	Bits int
}

// Int is a signed integer of the given width.
type Int struct {
	Bits int
}

// Array covers both core::array::Array and core::array::Span.
type Array struct {
	Inner Type
}

// Option is core::option::Option.
type Option struct {
	Inner Type
}

// NonZero is core::zeroable::NonZero.
type NonZero struct {
	Inner Type
}

// Tuple is an anonymous tuple.
type Tuple struct {
	Types []Type
}

// Struct is a named product type. It starts empty and is filled once.
type Struct struct {
	Name    string
	Members *Members
	filled  bool
}

// Enum is a named sum type. It starts empty and is filled once.
type Enum struct {
	Name     string
	Variants *Members
	filled   bool
}

// EventKind tells whether an event was declared struct-shaped or enum-shaped.
type EventKind string

const (
	EventKindStruct EventKind = "struct"
	EventKindEnum   EventKind = "enum"
)

// Event is a named event type. Members holds either struct members or enum variants.
type Event struct {
	Name      string
	EventKind EventKind
	Members   *Members
}

func (Felt) isType() {}
func (Bool) isType() {}
func (Unit) isType() {}
func (Uint) isType() {}
func (Int) isType() {}
func (Array) isType() {}
func (Option) isType() {}
func (NonZero) isType() {}
func (Tuple) isType() {}
func (*Struct) isType() {}
func (*Enum) isType() {}
func (*Event) isType() {}

func (Felt) String() string { return "core::felt252" }
func (Bool) String() string { return "core::bool" }
func (Unit) String() string { return "()" }

func (t Uint) String() string { return fmt.Sprintf("core::integer::u%d", t.Bits) }

func (t Int) String() string { return fmt.Sprintf("core::integer::i%d", t.Bits) }

func (t Array) String() string   { return "core::array::Array::<" + t.Inner.String() + ">" }
func (t Option) String() string  { return "core::option::Option::<" + t.Inner.String() + ">" }
func (t NonZero) String() string { return "core::zeroable::NonZero::<" + t.Inner.String() + ">" }

func (t Tuple) String() string {
	parts := make([]string, len(t.Types))
	for i, inner := range t.Types {
		parts[i] = inner.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// NewStruct returns an empty struct placeholder.
func NewStruct(name string) *Struct {
	return &Struct{Name: name, Members: NewMembers()}
}

func (s *Struct) String() string   { return s.Name }
func (s *Struct) TypeName() string { return s.Name }
func (s *Struct) Kind() Kind       { return KindStruct }

// Filled reports whether Fill has been called.
func (s *Struct) Filled() bool { return s.filled }

// Fill sets the struct members. It may only be called once.
func (s *Struct) Fill(members *Members) error {
	if s.filled {
		return fmt.Errorf("struct %q: %w", s.Name, ErrAlreadyFilled)
	}
	copyInto(s.Members, members)
	s.filled = true
	return nil
}

// NewEnum returns an empty enum placeholder.
func NewEnum(name string) *Enum {
	return &Enum{Name: name, Variants: NewMembers()}
}

func (e *Enum) String() string   { return e.Name }
func (e *Enum) TypeName() string { return e.Name }
func (e *Enum) Kind() Kind       { return KindEnum }

// Filled reports whether Fill has been called.
func (e *Enum) Filled() bool { return e.filled }

// Fill sets the enum variants. It may only be called once.
func (e *Enum) Fill(variants *Members) error {
	if e.filled {
		return fmt.Errorf("enum %q: %w", e.Name, ErrAlreadyFilled)
	}
	copyInto(e.Variants, variants)
	e.filled = true
	return nil
}

func (e *Event) String() string   { return e.Name }
func (e *Event) TypeName() string { return e.Name }
func (e *Event) Kind() Kind       { return KindEvent }

// copyInto mutates dst in place so earlier holders of dst see the new entries.
func copyInto(dst, src *Members) {
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		dst.Set(pair.Key, pair.Value)
	}
}

func memberTypes(m *Members) []Type {
	if m == nil {
		return nil
	}
	out := make([]Type, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Children returns the direct child types of t. Named types yield their members.
func Children(t Type) []Type {
	switch v := t.(type) {
	case Array:
		return []Type{v.Inner}
	case Option:
		return []Type{v.Inner}
	case NonZero:
		return []Type{v.Inner}
	case Tuple:
		return v.Types
	case *Struct:
		return memberTypes(v.Members)
	case *Enum:
		return memberTypes(v.Variants)
	case *Event:
		return memberTypes(v.Members)
	}
	return nil
}

// References returns the named types t refers to without passing through
// another named type, deduplicated, in first-seen order.
func References(t Type) []Named {
	var out []Named
	seen := make(map[Named]bool)
	var walk func(Type)
	walk = func(cur Type) {
		if n, ok := cur.(Named); ok {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
			return
		}
		for _, c := range Children(cur) {
			walk(c)
		}
	}
	for _, c := range Children(t) {
		walk(c)
	}
	return out
}

// TypeStrings renders every member type by its type string. Named members
// appear by name only, which keeps the encoding finite for any graph.
func TypeStrings(m *Members) *orderedmap.OrderedMap[string, string] {
	out := orderedmap.New[string, string]()
	if m == nil {
		return out
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value.String())
	}
	return out
}

type namedJSON struct {
	Name      string                                `json:"name"`
	Kind      Kind                                  `json:"kind"`
	EventKind EventKind                             `json:"event_kind,omitempty"`
	Members   *orderedmap.OrderedMap[string, string] `json:"members"`
}

func (s *Struct) MarshalJSON() ([]byte, error) {
	return json.Marshal(namedJSON{Name: s.Name, Kind: KindStruct, Members: TypeStrings(s.Members)})
}

func (e *Enum) MarshalJSON() ([]byte, error) {
	return json.Marshal(namedJSON{Name: e.Name, Kind: KindEnum, Members: TypeStrings(e.Variants)})
}

func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(namedJSON{Name: e.Name, Kind: KindEvent, EventKind: e.EventKind, Members: TypeStrings(e.Members)})
}
