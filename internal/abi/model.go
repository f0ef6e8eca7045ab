package abi

import (
	"encoding/json"
	"sort"

	"github.com/abramin/abilens/internal/cairo"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Abi is the resolved model of a contract interface. It is not modified after Parse returns.
type Abi struct {
	Structures      map[string]*cairo.Struct
	Enums           map[string]*cairo.Enum
	Constructor     *Constructor
	L1Handler       *Function
	Functions       map[string]*Function
	Events          map[string]*cairo.Event
	Interfaces      map[string]*Interface
	Implementations map[string]*Impl
}

// Function is an external, view or l1 handler function.
type Function struct {
	Name            string
	Inputs          *cairo.Members
	Outputs         []cairo.Type
	StateMutability string
}

// Constructor is the contract constructor. It has no outputs.
type Constructor struct {
	Name   string
	Inputs *cairo.Members
}

// Interface groups functions under a trait name.
type Interface struct {
	Name  string
	Items *orderedmap.OrderedMap[string, *Function]
}

// Impl binds an implementation name to the interface it implements.
type Impl struct {
	Name          string
	InterfaceName string
}

// SortedNames returns the keys of m in lexical order.
func SortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type functionJSON struct {
	Name            string                                `json:"name"`
	Inputs          *orderedmap.OrderedMap[string, string] `json:"inputs"`
	Outputs         []string                              `json:"outputs,omitempty"`
	StateMutability string                                `json:"state_mutability,omitempty"`
}

func (f *Function) MarshalJSON() ([]byte, error) {
	outputs := make([]string, len(f.Outputs))
	for i, o := range f.Outputs {
		outputs[i] = o.String()
	}
	return json.Marshal(functionJSON{
		Name:            f.Name,
		Inputs:          cairo.TypeStrings(f.Inputs),
		Outputs:         outputs,
		StateMutability: f.StateMutability,
	})
}

func (c *Constructor) MarshalJSON() ([]byte, error) {
	return json.Marshal(functionJSON{Name: c.Name, Inputs: cairo.TypeStrings(c.Inputs)})
}

func (i *Interface) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string                                  `json:"name"`
		Items *orderedmap.OrderedMap[string, *Function] `json:"items"`
	}{i.Name, i.Items})
}

func (i *Impl) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name          string `json:"name"`
		InterfaceName string `json:"interface_name"`
	}{i.Name, i.InterfaceName})
}

func (a *Abi) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Structures      map[string]*cairo.Struct `json:"structures"`
		Enums           map[string]*cairo.Enum   `json:"enums"`
		Constructor     *Constructor             `json:"constructor,omitempty"`
		L1Handler       *Function                `json:"l1_handler,omitempty"`
		Functions       map[string]*Function     `json:"functions"`
		Events          map[string]*cairo.Event  `json:"events"`
		Interfaces      map[string]*Interface    `json:"interfaces"`
		Implementations map[string]*Impl         `json:"implementations"`
	}{a.Structures, a.Enums, a.Constructor, a.L1Handler, a.Functions, a.Events, a.Interfaces, a.Implementations})
}
