// Package abi parses Starknet contract ABIs into a resolved, typed model.
//
// Parsing happens in a fixed order. Structs and enums are first allocated as
// empty placeholders so that member types can name any of them regardless of
// declaration order; a second pass fills the members in place. The completed
// type graph is checked for cycles before events are parsed, and each event
// is registered as a type as soon as it is parsed. Functions, the
// constructor, the l1 handler, interfaces and impls come last.
package abi

import (
	"errors"
	"fmt"

	"github.com/abramin/abilens/internal/cairo"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Parser turns validated ABI entries into an Abi.
type Parser struct {
	grouped  map[EntryType][]Entry
	log      logrus.FieldLogger
	typeOpts []cairo.ParserOption
	types    *cairo.Parser
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Parser) {
		p.log = l
	}
}

// WithTypeOptions passes options to the Cairo type parser, e.g. felt aliases.
func WithTypeOptions(opts ...cairo.ParserOption) Option {
	return func(p *Parser) {
		p.typeOpts = append(p.typeOpts, opts...)
	}
}

// NewParser groups entries by type. Nothing is resolved until Parse is called.
func NewParser(entries []Entry, opts ...Option) *Parser {
	p := &Parser{
		grouped: groupByType(entries),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses entries into an Abi.
func Parse(entries []Entry, opts ...Option) (*Abi, error) {
	return NewParser(entries, opts...).Parse()
}

// ParseJSON decodes raw ABI JSON and parses it.
func ParseJSON(data []byte, opts ...Option) (*Abi, error) {
	entries, err := DecodeEntries(data)
	if err != nil {
		return nil, err
	}
	return Parse(entries, opts...)
}

// Parse resolves the ABI. Every call starts from a fresh type registry, and
// any failure aborts the whole parse.
func (p *Parser) Parse() (*Abi, error) {
	structures, enums, err := p.parseStructuresAndEnums()
	if err != nil {
		return nil, err
	}

	events, err := p.parseEvents()
	if err != nil {
		return nil, err
	}

	functionEntries, err := groupByName(p.grouped[EntryFunction], entryName, "defined functions")
	if err != nil {
		return nil, err
	}
	interfaceEntries, err := groupByName(p.grouped[EntryInterface], entryName, "defined interfaces")
	if err != nil {
		return nil, err
	}
	implEntries, err := groupByName(p.grouped[EntryImpl], entryName, "defined impls")
	if err != nil {
		return nil, err
	}

	constructors := p.grouped[EntryConstructor]
	l1Handlers := p.grouped[EntryL1Handler]
	if len(constructors) > 1 {
		return nil, newError(KindCardinality, nil, "Constructor in ABI must be defined at most once.")
	}
	if len(l1Handlers) > 1 {
		return nil, newError(KindCardinality, nil, "L1 handler in ABI must be defined at most once.")
	}

	result := &Abi{
		Structures:      structures,
		Enums:           enums,
		Functions:       make(map[string]*Function, functionEntries.Len()),
		Events:          events,
		Interfaces:      make(map[string]*Interface, interfaceEntries.Len()),
		Implementations: make(map[string]*Impl, implEntries.Len()),
	}

	if len(constructors) == 1 {
		if result.Constructor, err = p.parseConstructor(constructors[0]); err != nil {
			return nil, err
		}
	}
	if len(l1Handlers) == 1 {
		if result.L1Handler, err = p.parseFunction(l1Handlers[0]); err != nil {
			return nil, err
		}
	}

	for pair := functionEntries.Oldest(); pair != nil; pair = pair.Next() {
		fn, err := p.parseFunction(pair.Value)
		if err != nil {
			return nil, err
		}
		result.Functions[pair.Key] = fn
	}

	for pair := interfaceEntries.Oldest(); pair != nil; pair = pair.Next() {
		iface, err := p.parseInterface(pair.Value)
		if err != nil {
			return nil, err
		}
		result.Interfaces[pair.Key] = iface
	}

	for pair := implEntries.Oldest(); pair != nil; pair = pair.Next() {
		result.Implementations[pair.Key] = parseImpl(pair.Value)
	}

	p.log.WithFields(logrus.Fields{
		"structures": len(result.Structures),
		"enums":      len(result.Enums),
		"events":     len(result.Events),
		"functions":  len(result.Functions),
		"interfaces": len(result.Interfaces),
		"impls":      len(result.Implementations),
	}).Debug("abi parsed")

	return result, nil
}

func (p *Parser) parseStructuresAndEnums() (map[string]*cairo.Struct, map[string]*cairo.Enum, error) {
	structEntries, err := groupByName(p.grouped[EntryStruct], entryName, "defined structures")
	if err != nil {
		return nil, nil, err
	}
	enumEntries, err := groupByName(p.grouped[EntryEnum], entryName, "defined enums")
	if err != nil {
		return nil, nil, err
	}

	// A member may name any struct or enum, including ones declared after it,
	// so every placeholder is registered before the first type string is resolved.
	registry := cairo.NewRegistry()
	defined := orderedmap.New[string, cairo.Named]()
	structs := make(map[string]*cairo.Struct, structEntries.Len())
	enums := make(map[string]*cairo.Enum, enumEntries.Len())

	for pair := structEntries.Oldest(); pair != nil; pair = pair.Next() {
		s := cairo.NewStruct(pair.Key)
		structs[pair.Key] = s
		registry.Define(s)
		defined.Set(pair.Key, s)
	}
	for pair := enumEntries.Oldest(); pair != nil; pair = pair.Next() {
		name := pair.Key
		if _, exists := defined.Get(name); exists {
			return nil, nil, duplicateName(name, "defined structures and enums")
		}
		e := cairo.NewEnum(name)
		enums[name] = e
		registry.Define(e)
		defined.Set(name, e)
	}
	p.types = cairo.NewParser(registry, p.typeOpts...)

	p.log.WithFields(logrus.Fields{
		"structures": len(structs),
		"enums":      len(enums),
	}).Debug("registered composite type placeholders")

	for pair := structEntries.Oldest(); pair != nil; pair = pair.Next() {
		members, err := p.parseMembers(pair.Value.Members, fmt.Sprintf("members of structure '%s'", pair.Key))
		if err != nil {
			return nil, nil, err
		}
		if err := structs[pair.Key].Fill(members); err != nil {
			return nil, nil, err
		}
	}

	for pair := enumEntries.Oldest(); pair != nil; pair = pair.Next() {
		variants, err := p.parseMembers(pair.Value.Variants, fmt.Sprintf("members of enum '%s'", pair.Key))
		if err != nil {
			return nil, nil, err
		}
		if err := enums[pair.Key].Fill(variants); err != nil {
			return nil, nil, err
		}
	}

	if err := checkForCycles(defined); err != nil {
		return nil, nil, err
	}
	return structs, enums, nil
}

func (p *Parser) parseEvents() (map[string]*cairo.Event, error) {
	eventEntries, err := groupByName(p.grouped[EntryEvent], entryName, "defined events")
	if err != nil {
		return nil, err
	}

	events := make(map[string]*cairo.Event, eventEntries.Len())
	for pair := eventEntries.Oldest(); pair != nil; pair = pair.Next() {
		ev, err := p.parseEvent(pair.Value)
		if err != nil {
			return nil, err
		}
		events[pair.Key] = ev
		if prev, replaced := p.types.Define(ev); replaced {
			p.log.WithFields(logrus.Fields{
				"event":    pair.Key,
				"previous": prev.Kind(),
			}).Debug("event shadows a type with the same name")
		}
	}
	return events, nil
}

func (p *Parser) parseEvent(e Entry) (*cairo.Event, error) {
	params, kind := e.Members, cairo.EventKindStruct
	if e.EventKind == EventKindEnum || (e.Members == nil && e.Variants != nil) {
		params, kind = e.Variants, cairo.EventKindEnum
	}
	members, err := p.parseMembers(params, fmt.Sprintf("members of event '%s'", e.Name))
	if err != nil {
		return nil, err
	}
	return &cairo.Event{Name: e.Name, EventKind: kind, Members: members}, nil
}

func (p *Parser) parseFunction(e Entry) (*Function, error) {
	inputs, err := p.parseMembers(e.Inputs, fmt.Sprintf("inputs of function '%s'", e.Name))
	if err != nil {
		return nil, err
	}
	outputs := make([]cairo.Type, 0, len(e.Outputs))
	for _, out := range e.Outputs {
		t, err := p.resolve(out.Type, fmt.Sprintf("outputs of function '%s'", e.Name))
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, t)
	}
	return &Function{
		Name:            e.Name,
		Inputs:          inputs,
		Outputs:         outputs,
		StateMutability: e.StateMutability,
	}, nil
}

func (p *Parser) parseConstructor(e Entry) (*Constructor, error) {
	inputs, err := p.parseMembers(e.Inputs, fmt.Sprintf("inputs of constructor '%s'", e.Name))
	if err != nil {
		return nil, err
	}
	return &Constructor{Name: e.Name, Inputs: inputs}, nil
}

func (p *Parser) parseInterface(e Entry) (*Interface, error) {
	items, err := groupByName(e.Items, entryName, fmt.Sprintf("items of interface '%s'", e.Name))
	if err != nil {
		return nil, err
	}
	iface := &Interface{Name: e.Name, Items: orderedmap.New[string, *Function]()}
	for pair := items.Oldest(); pair != nil; pair = pair.Next() {
		fn, err := p.parseFunction(pair.Value)
		if err != nil {
			return nil, err
		}
		iface.Items.Set(pair.Key, fn)
	}
	return iface, nil
}

func parseImpl(e Entry) *Impl {
	return &Impl{Name: e.Name, InterfaceName: e.InterfaceName}
}

func (p *Parser) parseMembers(params []Param, namespace string) (*cairo.Members, error) {
	grouped, err := groupByName(params, paramName, namespace)
	if err != nil {
		return nil, err
	}
	members := cairo.NewMembers()
	for pair := grouped.Oldest(); pair != nil; pair = pair.Next() {
		t, err := p.resolve(pair.Value.Type, namespace)
		if err != nil {
			return nil, err
		}
		members.Set(pair.Key, t)
	}
	return members, nil
}

func (p *Parser) resolve(typeString, where string) (cairo.Type, error) {
	t, err := p.types.ParseInline(typeString)
	if err != nil {
		var unknown *cairo.UnknownTypeError
		if errors.As(err, &unknown) {
			return nil, newError(KindUnknownType, err, "Type '%s' used in %s is not defined.", unknown.Name, where)
		}
		return nil, fmt.Errorf("resolving type '%s' in %s: %w", typeString, where, err)
	}
	return t, nil
}
