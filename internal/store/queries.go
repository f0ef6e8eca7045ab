package store

import (
	"database/sql"
	"fmt"
)

const contractColumns = `
	c.id, c.path, c.name, c.size_bytes, COALESCE(c.parse_error, ''),
	(SELECT COUNT(*) FROM types t WHERE t.contract_id = c.id),
	(SELECT COUNT(*) FROM functions f WHERE f.contract_id = c.id)
`

func scanContract(row interface{ Scan(...any) error }, c *Contract, extra ...any) error {
	dest := append([]any{&c.ID, &c.Path, &c.Name, &c.SizeBytes, &c.ParseError, &c.TypeCount, &c.FunctionCount}, extra...)
	return row.Scan(dest...)
}

// GetContracts returns every indexed contract ordered by path.
func (s *Store) GetContracts() ([]Contract, error) {
	rows, err := s.db.Query("SELECT " + contractColumns + " FROM contracts c ORDER BY c.path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := []Contract{}
	for rows.Next() {
		var c Contract
		if err := scanContract(rows, &c); err != nil {
			return nil, fmt.Errorf("scanning contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// GetContractByID returns a contract including its stored ABI JSON.
func (s *Store) GetContractByID(id ContractID) (*Contract, error) {
	var c Contract
	var abiJSON sql.NullString
	row := s.db.QueryRow("SELECT "+contractColumns+", c.abi_json FROM contracts c WHERE c.id = ?", id)
	if err := scanContract(row, &c, &abiJSON); err != nil {
		return nil, err
	}
	c.ABIJSON = abiJSON.String
	return &c, nil
}

// GetImpls returns the impl bindings of a contract.
func (s *Store) GetImpls(contractID ContractID) ([]Impl, error) {
	rows, err := s.db.Query(`
		SELECT contract_id, name, interface_name FROM impls
		WHERE contract_id = ?
		ORDER BY name
	`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	impls := []Impl{}
	for rows.Next() {
		var impl Impl
		if err := rows.Scan(&impl.ContractID, &impl.Name, &impl.InterfaceName); err != nil {
			return nil, err
		}
		impls = append(impls, impl)
	}
	return impls, rows.Err()
}

// GetTypes returns the named types of a contract without their members.
func (s *Store) GetTypes(contractID ContractID) ([]Type, error) {
	rows, err := s.db.Query(`
		SELECT id, contract_id, name, kind, COALESCE(event_kind, '') FROM types
		WHERE contract_id = ?
		ORDER BY kind, name
	`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []Type{}
	for rows.Next() {
		var t Type
		if err := rows.Scan(&t.ID, &t.ContractID, &t.Name, &t.Kind, &t.EventKind); err != nil {
			return nil, fmt.Errorf("scanning type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// GetTypeByID returns a type with its members.
func (s *Store) GetTypeByID(id TypeID) (*Type, error) {
	var t Type
	err := s.db.QueryRow(`
		SELECT id, contract_id, name, kind, COALESCE(event_kind, '') FROM types
		WHERE id = ?
	`, id).Scan(&t.ID, &t.ContractID, &t.Name, &t.Kind, &t.EventKind)
	if err != nil {
		return nil, err
	}
	if t.Members, err = s.GetMembers(t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTypeByName returns a type of a contract with its members. When an event
// shares its name with a struct or enum, the struct or enum is returned.
func (s *Store) GetTypeByName(contractID ContractID, name string) (*Type, error) {
	var id TypeID
	err := s.db.QueryRow(`
		SELECT id FROM types
		WHERE contract_id = ? AND name = ?
		ORDER BY CASE kind WHEN 'event' THEN 1 ELSE 0 END
		LIMIT 1
	`, contractID, name).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.GetTypeByID(id)
}

// GetMembers returns the members of a type in declaration order.
func (s *Store) GetMembers(typeID TypeID) ([]Member, error) {
	rows, err := s.db.Query(`
		SELECT position, name, type_string FROM members
		WHERE type_id = ?
		ORDER BY position
	`, typeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.Position, &m.Name, &m.Type); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetFunctions returns the functions of a contract with their params.
func (s *Store) GetFunctions(contractID ContractID) ([]Function, error) {
	rows, err := s.db.Query(`
		SELECT id, contract_id, name, kind, interface_name, COALESCE(state_mutability, '') FROM functions
		WHERE contract_id = ?
		ORDER BY kind, interface_name, name
	`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	functions := []Function{}
	index := make(map[FunctionID]int)
	for rows.Next() {
		f := Function{Inputs: []Param{}, Outputs: []Param{}}
		if err := rows.Scan(&f.ID, &f.ContractID, &f.Name, &f.Kind, &f.InterfaceName, &f.StateMutability); err != nil {
			return nil, fmt.Errorf("scanning function: %w", err)
		}
		index[f.ID] = len(functions)
		functions = append(functions, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	params, err := s.db.Query(`
		SELECT p.function_id, p.direction, p.position, p.name, p.type_string
		FROM params p
		JOIN functions f ON f.id = p.function_id
		WHERE f.contract_id = ?
		ORDER BY p.function_id, p.direction, p.position
	`, contractID)
	if err != nil {
		return nil, err
	}
	defer params.Close()

	for params.Next() {
		var fnID FunctionID
		var dir ParamDirection
		var p Param
		if err := params.Scan(&fnID, &dir, &p.Position, &p.Name, &p.Type); err != nil {
			return nil, fmt.Errorf("scanning param: %w", err)
		}
		i, ok := index[fnID]
		if !ok {
			continue
		}
		if dir == DirectionOutput {
			functions[i].Outputs = append(functions[i].Outputs, p)
		} else {
			functions[i].Inputs = append(functions[i].Inputs, p)
		}
	}
	return functions, params.Err()
}

// GetAllFunctions returns every function across contracts, without params.
func (s *Store) GetAllFunctions() ([]Function, error) {
	rows, err := s.db.Query(`
		SELECT id, contract_id, name, kind, interface_name, COALESCE(state_mutability, '') FROM functions
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var functions []Function
	for rows.Next() {
		var f Function
		if err := rows.Scan(&f.ID, &f.ContractID, &f.Name, &f.Kind, &f.InterfaceName, &f.StateMutability); err != nil {
			return nil, err
		}
		functions = append(functions, f)
	}
	return functions, rows.Err()
}

// GetTypeRefs returns the types directly referenced by a type.
func (s *Store) GetTypeRefs(typeID TypeID) ([]TypeRef, error) {
	rows, err := s.db.Query(`
		SELECT r.source_id, r.target_id, t.name, t.kind
		FROM type_refs r
		JOIN types t ON t.id = r.target_id
		WHERE r.source_id = ?
		ORDER BY t.name
	`, typeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []TypeRef{}
	for rows.Next() {
		var r TypeRef
		if err := rows.Scan(&r.SourceID, &r.TargetID, &r.TargetName, &r.TargetKind); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// GetUnreferencedTypes returns structs and enums that no type or function refers to.
func (s *Store) GetUnreferencedTypes() ([]Type, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.contract_id, t.name, t.kind FROM types t
		WHERE t.kind != 'event'
		  AND NOT EXISTS (SELECT 1 FROM type_refs r WHERE r.target_id = t.id)
		  AND NOT EXISTS (SELECT 1 FROM function_refs f WHERE f.type_id = t.id)
		ORDER BY t.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []Type
	for rows.Next() {
		var t Type
		if err := rows.Scan(&t.ID, &t.ContractID, &t.Name, &t.Kind); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// GetTags returns the tags on a type or function.
func (s *Store) GetTags(subject TagSubject, id int64) ([]Tag, error) {
	rows, err := s.db.Query(`
		SELECT subject, subject_id, tag, COALESCE(reason, '') FROM tags
		WHERE subject = ? AND subject_id = ?
		ORDER BY tag
	`, subject, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.Subject, &t.SubjectID, &t.Tag, &t.Reason); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTypeTags returns the tags on a type.
func (s *Store) GetTypeTags(id TypeID) ([]Tag, error) {
	return s.GetTags(SubjectType, int64(id))
}

// GetFunctionTags returns the tags on a function.
func (s *Store) GetFunctionTags(id FunctionID) ([]Tag, error) {
	return s.GetTags(SubjectFunction, int64(id))
}

// SearchTypes finds types whose name contains query, across all contracts.
func (s *Store) SearchTypes(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.kind, c.id, c.path
		FROM types t
		JOIN contracts c ON c.id = t.contract_id
		WHERE t.name LIKE '%' || ? || '%'
		ORDER BY length(t.name), t.name, c.path
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.TypeID, &r.Name, &r.Kind, &r.ContractID, &r.ContractPath); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
