package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abramin/abilens/internal/store"
)

// tokenABI mirrors what Scarb writes for a component-based ERC20.
const tokenABI = `[
  {"type": "impl", "name": "ERC20Impl", "interface_name": "openzeppelin::token::erc20::interface::IERC20"},
  {"type": "struct", "name": "core::integer::u256", "members": [
    {"name": "low", "type": "core::integer::u128"},
    {"name": "high", "type": "core::integer::u128"}
  ]},
  {"type": "enum", "name": "core::bool", "variants": [
    {"name": "False", "type": "()"},
    {"name": "True", "type": "()"}
  ]},
  {"type": "interface", "name": "openzeppelin::token::erc20::interface::IERC20", "items": [
    {"type": "function", "name": "balance_of", "inputs": [{"name": "account", "type": "core::starknet::contract_address::ContractAddress"}], "outputs": [{"type": "core::integer::u256"}], "state_mutability": "view"},
    {"type": "function", "name": "transfer", "inputs": [{"name": "recipient", "type": "core::starknet::contract_address::ContractAddress"}, {"name": "amount", "type": "core::integer::u256"}], "outputs": [{"type": "core::bool"}], "state_mutability": "external"}
  ]},
  {"type": "struct", "name": "core::array::Span::<core::felt252>", "members": [
    {"name": "snapshot", "type": "@core::array::Array::<core::felt252>"}
  ]},
  {"type": "function", "name": "batch_mint", "inputs": [{"name": "data", "type": "core::array::Span::<core::felt252>"}], "outputs": [], "state_mutability": "external"},
  {"type": "event", "name": "openzeppelin::token::erc20::erc20::ERC20Component::Transfer", "kind": "struct", "members": [
    {"name": "from", "type": "core::starknet::contract_address::ContractAddress", "kind": "key"},
    {"name": "to", "type": "core::starknet::contract_address::ContractAddress", "kind": "key"},
    {"name": "value", "type": "core::integer::u256", "kind": "data"}
  ]},
  {"type": "event", "name": "openzeppelin::token::erc20::erc20::ERC20Component::Event", "kind": "enum", "variants": [
    {"name": "Transfer", "type": "openzeppelin::token::erc20::erc20::ERC20Component::Transfer", "kind": "nested"}
  ]},
  {"type": "event", "name": "token::Token::Event", "kind": "enum", "variants": [
    {"name": "ERC20Event", "type": "openzeppelin::token::erc20::erc20::ERC20Component::Event", "kind": "flat"}
  ]}
]`

func TestIndexerCompilerOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target", "dev", "token_Token.contract_class.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	content := `{"sierra_program": [], "contract_class_version": "0.1.0", "abi": ` + tokenABI + `}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	result := runIndex(t, dir)
	if len(result.FailedFiles) != 0 {
		t.Fatalf("expected no failed files, got %v", result.FailedFiles)
	}
	if result.ContractCount != 1 {
		t.Errorf("expected 1 contract, got %d", result.ContractCount)
	}

	st := openIndexed(t, dir)
	token := contractByName(t, st, "token_Token")
	if token.ParseError != "" {
		t.Fatalf("unexpected parse error: %s", token.ParseError)
	}

	span, err := st.GetTypeByName(token.ID, "core::array::Span::<core::felt252>")
	if err != nil {
		t.Fatalf("span not stored: %v", err)
	}
	if span.Kind != store.TypeKindStruct {
		t.Errorf("expected struct, got %s", span.Kind)
	}
	if len(span.Members) != 1 || span.Members[0].Type != "core::array::Array::<core::felt252>" {
		t.Errorf("unexpected span members: %+v", span.Members)
	}

	boolEnum, err := st.GetTypeByName(token.ID, "core::bool")
	if err != nil {
		t.Fatalf("core::bool not stored: %v", err)
	}
	if boolEnum.Kind != store.TypeKindEnum || len(boolEnum.Members) != 2 {
		t.Errorf("unexpected core::bool row: %+v", boolEnum)
	}

	outer, err := st.GetTypeByName(token.ID, "token::Token::Event")
	if err != nil {
		t.Fatal(err)
	}
	if outer.Kind != store.TypeKindEvent || outer.EventKind != "enum" {
		t.Errorf("unexpected event row: %+v", outer)
	}
	refs, err := st.GetTypeRefs(outer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].TargetName != "openzeppelin::token::erc20::erc20::ERC20Component::Event" {
		t.Errorf("expected flat reference to component event, got %+v", refs)
	}

	functions, err := st.GetFunctions(token.ID)
	if err != nil {
		t.Fatal(err)
	}
	var mint *store.Function
	for i := range functions {
		if functions[i].Name == "batch_mint" {
			mint = &functions[i]
		}
	}
	if mint == nil {
		t.Fatalf("batch_mint not stored: %+v", functions)
	}
	if len(mint.Inputs) != 1 || mint.Inputs[0].Type != "core::array::Span::<core::felt252>" {
		t.Errorf("unexpected batch_mint inputs: %+v", mint.Inputs)
	}
}
