package abi

import (
	"fmt"

	"github.com/tidwall/gjson"
)

var eventMemberKinds = map[string]bool{"key": true, "data": true, "nested": true, "flat": true}

// DecodeEntries validates raw ABI JSON and normalizes it into entries.
//
// The input is either the ABI array itself or a contract class object whose
// "abi" field holds the array, possibly as a JSON-encoded string. Fields the
// schema does not know are ignored.
func DecodeEntries(data []byte) ([]Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, schemaError("abi is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	if root.IsObject() {
		abiField := root.Get("abi")
		if !abiField.Exists() {
			return nil, schemaError("contract class has no 'abi' field")
		}
		if abiField.Type == gjson.String {
			if !gjson.Valid(abiField.Str) {
				return nil, schemaError("contract class 'abi' string is not valid JSON")
			}
			abiField = gjson.Parse(abiField.Str)
		}
		root = abiField
	}
	if !root.IsArray() {
		return nil, schemaError("abi must be a JSON array")
	}

	items := root.Array()
	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		e, err := decodeEntry(item, fmt.Sprintf("entry %d", i))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeEntry(v gjson.Result, where string) (Entry, error) {
	if !v.IsObject() {
		return Entry{}, schemaError("%s: expected an object", where)
	}
	typ, err := requireString(v, "type", where)
	if err != nil {
		return Entry{}, err
	}
	name, err := requireString(v, "name", where)
	if err != nil {
		return Entry{}, err
	}
	where = fmt.Sprintf("%s '%s'", typ, name)
	e := Entry{Type: EntryType(typ), Name: name}

	switch e.Type {
	case EntryStruct:
		e.Members, err = decodeParams(v, "members", where, true)
	case EntryEnum:
		e.Variants, err = decodeParams(v, "variants", where, true)
	case EntryFunction, EntryL1Handler:
		err = decodeFunction(v, where, &e)
	case EntryConstructor:
		e.Inputs, err = decodeParams(v, "inputs", where, true)
	case EntryEvent:
		err = decodeEvent(v, where, &e)
	case EntryInterface:
		err = decodeInterface(v, where, &e)
	case EntryImpl:
		e.InterfaceName, err = requireString(v, "interface_name", where)
	default:
		return Entry{}, schemaError("%s: unknown entry type '%s'", where, typ)
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func decodeFunction(v gjson.Result, where string, e *Entry) error {
	var err error
	if e.Inputs, err = decodeParams(v, "inputs", where, true); err != nil {
		return err
	}
	if e.Outputs, err = decodeParams(v, "outputs", where, false); err != nil {
		return err
	}
	if sm := v.Get("state_mutability"); sm.Exists() {
		if sm.Str != "view" && sm.Str != "external" {
			return schemaError("%s: invalid state_mutability '%s'", where, sm.String())
		}
		e.StateMutability = sm.Str
	}
	return nil
}

func decodeEvent(v gjson.Result, where string, e *Entry) error {
	kind, err := requireString(v, "kind", where)
	if err != nil {
		return err
	}
	e.EventKind = kind
	switch kind {
	case EventKindStruct:
		e.Members, err = decodeParams(v, "members", where, true)
	case EventKindEnum:
		e.Variants, err = decodeParams(v, "variants", where, true)
	default:
		return schemaError("%s: invalid event kind '%s'", where, kind)
	}
	if err != nil {
		return err
	}
	for _, p := range append(e.Members, e.Variants...) {
		if p.Kind != "" && !eventMemberKinds[p.Kind] {
			return schemaError("%s: member '%s' has invalid kind '%s'", where, p.Name, p.Kind)
		}
	}
	return nil
}

func decodeInterface(v gjson.Result, where string, e *Entry) error {
	items := v.Get("items")
	if !items.IsArray() {
		return schemaError("%s: field 'items' must be an array", where)
	}
	for i, item := range items.Array() {
		itemWhere := fmt.Sprintf("%s item %d", where, i)
		it, err := decodeEntry(item, itemWhere)
		if err != nil {
			return err
		}
		if it.Type != EntryFunction {
			return schemaError("%s: interface items must be functions, got '%s'", itemWhere, it.Type)
		}
		e.Items = append(e.Items, it)
	}
	return nil
}

func decodeParams(v gjson.Result, field, where string, named bool) ([]Param, error) {
	list := v.Get(field)
	if !list.IsArray() {
		return nil, schemaError("%s: field '%s' must be an array", where, field)
	}
	items := list.Array()
	params := make([]Param, 0, len(items))
	for i, item := range items {
		itemWhere := fmt.Sprintf("%s %s[%d]", where, field, i)
		if !item.IsObject() {
			return nil, schemaError("%s: expected an object", itemWhere)
		}
		var p Param
		var err error
		if named {
			if p.Name, err = requireString(item, "name", itemWhere); err != nil {
				return nil, err
			}
		}
		if p.Type, err = requireString(item, "type", itemWhere); err != nil {
			return nil, err
		}
		if k := item.Get("kind"); k.Type == gjson.String {
			p.Kind = k.Str
		}
		params = append(params, p)
	}
	return params, nil
}

func requireString(v gjson.Result, field, where string) (string, error) {
	f := v.Get(field)
	if f.Type != gjson.String {
		return "", schemaError("%s: missing string field '%s'", where, field)
	}
	return f.Str, nil
}
