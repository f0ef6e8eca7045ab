package cairo

import (
	"fmt"
	"strconv"
	"strings"
)

// UnknownTypeError is returned when a type string names nothing the parser knows.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("type '%s' is not defined", e.Name)
}

var feltNames = []string{
	"felt",
	"core::felt252",
	"core::starknet::contract_address::ContractAddress",
	"core::starknet::class_hash::ClassHash",
	"core::starknet::eth_address::EthAddress",
	"core::starknet::storage_access::StorageAddress",
	"core::bytes_31::bytes31",
}

var wrappers = []struct {
	prefix string
	wrap   func(Type) Type
}{
	{"core::array::Array::", func(t Type) Type { return Array{Inner: t} }},
	{"core::array::Span::", func(t Type) Type { return Array{Inner: t} }},
	{"core::option::Option::", func(t Type) Type { return Option{Inner: t} }},
	{"core::zeroable::NonZero::", func(t Type) Type { return NonZero{Inner: t} }},
}

const integerPrefix = "core::integer::"

// Parser resolves inline type strings against a registry of named types.
type Parser struct {
	registry *Registry
	felts    map[string]bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithFeltAliases makes the parser resolve the given type names to Felt.
func WithFeltAliases(names ...string) ParserOption {
	return func(p *Parser) {
		for _, n := range names {
			p.felts[n] = true
		}
	}
}

// NewParser returns a parser resolving named types through reg.
func NewParser(reg *Registry, opts ...ParserOption) *Parser {
	p := &Parser{registry: reg, felts: make(map[string]bool, len(feltNames))}
	for _, n := range feltNames {
		p.felts[n] = true
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry the parser resolves against.
func (p *Parser) Registry() *Registry {
	return p.registry
}

// Define adds a named type to the registry so later type strings can refer to it.
func (p *Parser) Define(n Named) (previous Named, replaced bool) {
	return p.registry.Define(n)
}

// ParseInline resolves a single type string. A snapshot "@T" resolves to T.
func (p *Parser) ParseInline(s string) (Type, error) {
	s = strings.TrimSpace(s)

	// Span is declared by the compiler as a struct holding @Array::<T>.
	if inner, ok := strings.CutPrefix(s, "@"); ok {
		return p.ParseInline(inner)
	}

	if t, ok := p.primitive(s); ok {
		return t, nil
	}
	if n, ok := p.registry.Lookup(s); ok {
		return n, nil
	}
	for _, w := range wrappers {
		if inner, ok := genericArgument(s, w.prefix); ok {
			t, err := p.ParseInline(inner)
			if err != nil {
				return nil, err
			}
			return w.wrap(t), nil
		}
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return p.parseTuple(s)
	}
	return nil, &UnknownTypeError{Name: s}
}

func (p *Parser) primitive(s string) (Type, bool) {
	if p.felts[s] {
		return Felt{}, true
	}
	switch s {
	case "core::bool":
		return Bool{}, true
	case "()":
		return Unit{}, true
	}
	if rest, ok := strings.CutPrefix(s, integerPrefix); ok {
		if rest == "usize" {
			return Uint{Bits: 32}, true
		}
		if len(rest) < 2 {
			return nil, false
		}
		bits, err := strconv.Atoi(rest[1:])
		if err != nil || !validWidth(bits) {
			return nil, false
		}
		switch rest[0] {
		case 'u':
			return Uint{Bits: bits}, true
		case 'i':
			if bits == 256 {
				return nil, false
			}
			return Int{Bits: bits}, true
		}
	}
	return nil, false
}

func validWidth(bits int) bool {
	switch bits {
	case 8, 16, 32, 64, 128, 256:
		return true
	}
	return false
}

// genericArgument extracts T from "<prefix><T>".
func genericArgument(s, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(s, prefix)
	if !ok || len(rest) < 2 || rest[0] != '<' || rest[len(rest)-1] != '>' {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}

func (p *Parser) parseTuple(s string) (Type, error) {
	parts, ok := splitTopLevel(s[1 : len(s)-1])
	if !ok {
		return nil, &UnknownTypeError{Name: s}
	}
	if len(parts) == 0 {
		return Unit{}, nil
	}
	types := make([]Type, 0, len(parts))
	for _, part := range parts {
		t, err := p.ParseInline(part)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return Tuple{Types: types}, nil
}

// splitTopLevel splits on commas outside of () and <>. A trailing comma is
// allowed, as in the one-element tuple "(felt,)".
func splitTopLevel(s string) ([]string, bool) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '<':
			depth++
		case ')', '>':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		parts = append(parts, last)
	}
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}
