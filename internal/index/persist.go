package index

import (
	"encoding/json"
	"fmt"

	"github.com/abramin/abilens/internal/abi"
	"github.com/abramin/abilens/internal/cairo"
	"github.com/abramin/abilens/internal/store"
)

// persistCounts tallies what persistFile wrote.
type persistCounts struct {
	Types     int
	Functions int
}

// persistFile writes one parsed file inside batch. A rejected file is stored
// as a contract row carrying its parse error and nothing else.
func persistFile(batch *store.BatchTx, pf *ParsedFile) (persistCounts, error) {
	var counts persistCounts

	contract := &store.Contract{Path: pf.Path, Name: pf.Name, SizeBytes: pf.Size}
	if pf.Err != nil {
		contract.ParseError = pf.Err.Error()
	} else {
		raw, err := json.Marshal(pf.ABI)
		if err != nil {
			return counts, fmt.Errorf("encoding abi of %s: %w", pf.Path, err)
		}
		contract.ABIJSON = string(raw)
	}

	cid, err := batch.InsertContract(contract)
	if err != nil {
		return counts, fmt.Errorf("inserting contract %s: %w", pf.Path, err)
	}
	if pf.Err != nil {
		return counts, nil
	}

	// Types first so functions can reference them by id
	w := &contractWriter{batch: batch, contractID: cid, ids: make(map[cairo.Named]store.TypeID)}
	if err := w.writeTypes(pf.ABI); err != nil {
		return counts, fmt.Errorf("persisting types of %s: %w", pf.Path, err)
	}
	if err := w.writeFunctions(pf.ABI); err != nil {
		return counts, fmt.Errorf("persisting functions of %s: %w", pf.Path, err)
	}
	for _, name := range abi.SortedNames(pf.ABI.Implementations) {
		impl := pf.ABI.Implementations[name]
		if err := batch.InsertImpl(&store.Impl{ContractID: cid, Name: impl.Name, InterfaceName: impl.InterfaceName}); err != nil {
			return counts, fmt.Errorf("inserting impl %s: %w", impl.Name, err)
		}
	}

	counts.Types = len(w.ids)
	counts.Functions = w.functions
	return counts, nil
}

type contractWriter struct {
	batch      *store.BatchTx
	contractID store.ContractID
	ids        map[cairo.Named]store.TypeID
	functions  int
}

type namedRow struct {
	named     cairo.Named
	kind      store.TypeKind
	eventKind string
	members   *cairo.Members
}

func (w *contractWriter) writeTypes(a *abi.Abi) error {
	var rows []namedRow
	for _, name := range abi.SortedNames(a.Structures) {
		s := a.Structures[name]
		rows = append(rows, namedRow{named: s, kind: store.TypeKindStruct, members: s.Members})
	}
	for _, name := range abi.SortedNames(a.Enums) {
		e := a.Enums[name]
		rows = append(rows, namedRow{named: e, kind: store.TypeKindEnum, members: e.Variants})
	}
	for _, name := range abi.SortedNames(a.Events) {
		ev := a.Events[name]
		rows = append(rows, namedRow{named: ev, kind: store.TypeKindEvent, eventKind: string(ev.EventKind), members: ev.Members})
	}

	// Every row needs an id before any reference between them can be written.
	for _, r := range rows {
		id, err := w.batch.InsertType(&store.Type{
			ContractID: w.contractID,
			Name:       r.named.TypeName(),
			Kind:       r.kind,
			EventKind:  r.eventKind,
		})
		if err != nil {
			return fmt.Errorf("inserting type %s: %w", r.named.TypeName(), err)
		}
		w.ids[r.named] = id
	}

	// Members in declaration order, then type-to-type references
	for _, r := range rows {
		id := w.ids[r.named]
		i := 0
		for pair := r.members.Oldest(); pair != nil; pair = pair.Next() {
			if err := w.batch.InsertMember(id, store.Member{Position: i, Name: pair.Key, Type: pair.Value.String()}); err != nil {
				return fmt.Errorf("inserting member %s.%s: %w", r.named.TypeName(), pair.Key, err)
			}
			i++
		}
		for _, target := range cairo.References(r.named) {
			targetID, ok := w.ids[target]
			if !ok {
				continue
			}
			if err := w.batch.InsertTypeRef(id, targetID); err != nil {
				return fmt.Errorf("inserting reference %s -> %s: %w", r.named.TypeName(), target.TypeName(), err)
			}
		}
	}
	return nil
}

func (w *contractWriter) writeFunctions(a *abi.Abi) error {
	if a.Constructor != nil {
		f := &store.Function{ContractID: w.contractID, Name: a.Constructor.Name, Kind: store.FunctionKindConstructor}
		if err := w.writeFunction(f, a.Constructor.Inputs, nil); err != nil {
			return err
		}
	}
	if a.L1Handler != nil {
		if err := w.writeFunction(w.function(a.L1Handler, store.FunctionKindL1Handler, ""), a.L1Handler.Inputs, a.L1Handler.Outputs); err != nil {
			return err
		}
	}
	for _, name := range abi.SortedNames(a.Functions) {
		fn := a.Functions[name]
		if err := w.writeFunction(w.function(fn, store.FunctionKindExternal, ""), fn.Inputs, fn.Outputs); err != nil {
			return err
		}
	}
	for _, ifaceName := range abi.SortedNames(a.Interfaces) {
		iface := a.Interfaces[ifaceName]
		for pair := iface.Items.Oldest(); pair != nil; pair = pair.Next() {
			fn := pair.Value
			if err := w.writeFunction(w.function(fn, store.FunctionKindExternal, ifaceName), fn.Inputs, fn.Outputs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *contractWriter) function(fn *abi.Function, kind store.FunctionKind, iface string) *store.Function {
	return &store.Function{
		ContractID:      w.contractID,
		Name:            fn.Name,
		Kind:            kind,
		InterfaceName:   iface,
		StateMutability: fn.StateMutability,
	}
}

func (w *contractWriter) writeFunction(f *store.Function, inputs *cairo.Members, outputs []cairo.Type) error {
	id, err := w.batch.InsertFunction(f)
	if err != nil {
		return fmt.Errorf("inserting function %s: %w", f.Name, err)
	}
	w.functions++

	// Params keep their declared positions
	var used []cairo.Type
	i := 0
	for pair := inputs.Oldest(); pair != nil; pair = pair.Next() {
		if err := w.batch.InsertParam(id, store.DirectionInput, store.Param{Position: i, Name: pair.Key, Type: pair.Value.String()}); err != nil {
			return fmt.Errorf("inserting input %s of %s: %w", pair.Key, f.Name, err)
		}
		used = append(used, pair.Value)
		i++
	}
	for i, t := range outputs {
		if err := w.batch.InsertParam(id, store.DirectionOutput, store.Param{Position: i, Type: t.String()}); err != nil {
			return fmt.Errorf("inserting output %d of %s: %w", i, f.Name, err)
		}
		used = append(used, t)
	}

	// Link the function to every stored type its signature mentions
	for _, t := range used {
		for _, n := range namedIn(t) {
			typeID, ok := w.ids[n]
			if !ok {
				continue
			}
			if err := w.batch.InsertFunctionRef(id, typeID); err != nil {
				return fmt.Errorf("inserting reference %s -> %s: %w", f.Name, n.TypeName(), err)
			}
		}
	}
	return nil
}

// namedIn returns the named types a signature type mentions: t itself when it
// is named, otherwise whatever named types its wrappers hold.
func namedIn(t cairo.Type) []cairo.Named {
	if n, ok := t.(cairo.Named); ok {
		return []cairo.Named{n}
	}
	return cairo.References(t)
}
