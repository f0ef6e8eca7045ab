package cairo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInlinePrimitives(t *testing.T) {
	p := NewParser(NewRegistry())

	tests := []struct {
		input string
		want  Type
	}{
		{"felt", Felt{}},
		{"core::felt252", Felt{}},
		{"core::starknet::contract_address::ContractAddress", Felt{}},
		{"core::starknet::class_hash::ClassHash", Felt{}},
		{"core::bytes_31::bytes31", Felt{}},
		{"core::bool", Bool{}},
		{"()", Unit{}},
		{"core::integer::u8", Uint{Bits: 8}},
		{"core::integer::u128", Uint{Bits: 128}},
		{"core::integer::u256", Uint{Bits: 256}},
		{"core::integer::usize", Uint{Bits: 32}},
		{"core::integer::i64", Int{Bits: 64}},
		{"  core::felt252 ", Felt{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := p.ParseInline(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInlineWrappers(t *testing.T) {
	p := NewParser(NewRegistry())

	tests := []struct {
		input string
		want  Type
	}{
		{"core::array::Array::<core::felt252>", Array{Inner: Felt{}}},
		{"core::array::Span::<core::integer::u8>", Array{Inner: Uint{Bits: 8}}},
		{"core::option::Option::<core::bool>", Option{Inner: Bool{}}},
		{"core::zeroable::NonZero::<core::integer::u64>", NonZero{Inner: Uint{Bits: 64}}},
		{"core::array::Array::<core::array::Array::<felt>>", Array{Inner: Array{Inner: Felt{}}}},
		{"(core::felt252, core::bool)", Tuple{Types: []Type{Felt{}, Bool{}}}},
		{"(core::felt252,)", Tuple{Types: []Type{Felt{}}}},
		{
			"(core::array::Array::<(core::felt252, core::integer::u8)>, ())",
			Tuple{Types: []Type{Array{Inner: Tuple{Types: []Type{Felt{}, Uint{Bits: 8}}}}, Unit{}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := p.ParseInline(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInlineSnapshots(t *testing.T) {
	p := NewParser(NewRegistry())

	tests := []struct {
		input string
		want  Type
	}{
		{"@core::array::Array::<core::felt252>", Array{Inner: Felt{}}},
		{"@core::felt252", Felt{}},
		{"(@core::array::Array::<core::integer::u8>, core::bool)", Tuple{Types: []Type{Array{Inner: Uint{Bits: 8}}, Bool{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := p.ParseInline(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInlineSnapshotOfNamedType(t *testing.T) {
	reg := NewRegistry()
	point := NewStruct("Point")
	reg.Define(point)
	p := NewParser(reg)

	got, err := p.ParseInline("@Point")
	require.NoError(t, err)
	assert.Same(t, point, got)

	_, err = p.ParseInline("@Missing")
	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Missing", unknown.Name)
}

func TestParseInlineNamedTypesAreShared(t *testing.T) {
	reg := NewRegistry()
	point := NewStruct("Point")
	reg.Define(point)
	p := NewParser(reg)

	got, err := p.ParseInline("Point")
	require.NoError(t, err)
	assert.Same(t, point, got)

	arr, err := p.ParseInline("core::array::Array::<Point>")
	require.NoError(t, err)
	assert.Same(t, point, arr.(Array).Inner)

	members := NewMembers()
	members.Set("x", Felt{})
	require.NoError(t, point.Fill(members))
	assert.Equal(t, 1, got.(*Struct).Members.Len(), "fill must be visible through earlier references")
}

func TestParseInlineUnknown(t *testing.T) {
	p := NewParser(NewRegistry())

	for _, input := range []string{
		"Missing",
		"core::array::Array::<Missing>",
		"(core::felt252, Missing)",
		"(core::felt252",
		"core::integer::u7",
		"core::integer::i256",
		"(a)(b)",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := p.ParseInline(input)
			var unknown *UnknownTypeError
			require.True(t, errors.As(err, &unknown), "got %v", err)
		})
	}
}

func TestParseInlineUnknownNamesInnermostType(t *testing.T) {
	p := NewParser(NewRegistry())

	_, err := p.ParseInline("core::option::Option::<my::Thing>")
	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "my::Thing", unknown.Name)
}

func TestWithFeltAliases(t *testing.T) {
	p := NewParser(NewRegistry(), WithFeltAliases("Uint256Legacy"))

	got, err := p.ParseInline("Uint256Legacy")
	require.NoError(t, err)
	assert.Equal(t, Felt{}, got)
}

func TestDefineMakesEventsResolvable(t *testing.T) {
	p := NewParser(NewRegistry())
	ev := &Event{Name: "Transfer", EventKind: EventKindStruct, Members: NewMembers()}

	_, err := p.ParseInline("Transfer")
	require.Error(t, err)

	_, replaced := p.Define(ev)
	assert.False(t, replaced)

	got, err := p.ParseInline("Transfer")
	require.NoError(t, err)
	assert.Same(t, ev, got)
}

func TestTypeStrings(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Felt{}, "core::felt252"},
		{Uint{Bits: 256}, "core::integer::u256"},
		{Int{Bits: 8}, "core::integer::i8"},
		{Array{Inner: Bool{}}, "core::array::Array::<core::bool>"},
		{Option{Inner: NewStruct("Point")}, "core::option::Option::<Point>"},
		{Tuple{Types: []Type{Felt{}, Unit{}}}, "(core::felt252, ())"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestParseInlineRoundTripsCanonicalStrings(t *testing.T) {
	p := NewParser(NewRegistry())
	for _, s := range []string{
		"core::array::Array::<core::option::Option::<core::integer::u64>>",
		"(core::felt252, core::zeroable::NonZero::<core::integer::u128>)",
	} {
		got, err := p.ParseInline(s)
		require.NoError(t, err)
		assert.Equal(t, s, got.String())
	}
}
