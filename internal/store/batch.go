package store

import "database/sql"

const insertTagSQL = `
	INSERT INTO tags (subject, subject_id, tag, reason)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(subject, subject_id, tag) DO UPDATE SET
		reason = excluded.reason
`

// BeginBatch starts a transaction for batch inserts.
// Call Commit() when done, or Rollback() on error.
func (s *Store) BeginBatch() (*BatchTx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &BatchTx{tx: tx}, nil
}

// BatchTx wraps a transaction for batch operations.
type BatchTx struct {
	tx *sql.Tx
}

// Commit commits the batch transaction.
func (b *BatchTx) Commit() error {
	return b.tx.Commit()
}

// Rollback rolls back the batch transaction.
func (b *BatchTx) Rollback() error {
	return b.tx.Rollback()
}

// InsertContract inserts a contract and returns its ID.
func (b *BatchTx) InsertContract(c *Contract) (ContractID, error) {
	var parseErr, abiJSON any
	if c.ParseError != "" {
		parseErr = c.ParseError
	}
	if c.ABIJSON != "" {
		abiJSON = c.ABIJSON
	}
	result, err := b.tx.Exec(`
		INSERT INTO contracts (path, name, size_bytes, parse_error, abi_json)
		VALUES (?, ?, ?, ?, ?)
	`, c.Path, c.Name, c.SizeBytes, parseErr, abiJSON)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return ContractID(id), err
}

// InsertType inserts a named type and returns its ID. Members are inserted separately.
func (b *BatchTx) InsertType(t *Type) (TypeID, error) {
	var eventKind any
	if t.EventKind != "" {
		eventKind = t.EventKind
	}
	result, err := b.tx.Exec(`
		INSERT INTO types (contract_id, name, kind, event_kind)
		VALUES (?, ?, ?, ?)
	`, t.ContractID, t.Name, t.Kind, eventKind)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return TypeID(id), err
}

// InsertMember inserts a member of a named type.
func (b *BatchTx) InsertMember(typeID TypeID, m Member) error {
	_, err := b.tx.Exec(`
		INSERT INTO members (type_id, position, name, type_string)
		VALUES (?, ?, ?, ?)
	`, typeID, m.Position, m.Name, m.Type)
	return err
}

// InsertTypeRef records that source refers to target.
func (b *BatchTx) InsertTypeRef(source, target TypeID) error {
	_, err := b.tx.Exec(`
		INSERT INTO type_refs (source_id, target_id)
		VALUES (?, ?)
		ON CONFLICT(source_id, target_id) DO NOTHING
	`, source, target)
	return err
}

// InsertFunction inserts a function and returns its ID. Params are inserted separately.
func (b *BatchTx) InsertFunction(f *Function) (FunctionID, error) {
	var mutability any
	if f.StateMutability != "" {
		mutability = f.StateMutability
	}
	result, err := b.tx.Exec(`
		INSERT INTO functions (contract_id, name, kind, interface_name, state_mutability)
		VALUES (?, ?, ?, ?, ?)
	`, f.ContractID, f.Name, f.Kind, f.InterfaceName, mutability)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return FunctionID(id), err
}

// InsertParam inserts a function input or output.
func (b *BatchTx) InsertParam(fnID FunctionID, dir ParamDirection, p Param) error {
	_, err := b.tx.Exec(`
		INSERT INTO params (function_id, direction, position, name, type_string)
		VALUES (?, ?, ?, ?, ?)
	`, fnID, dir, p.Position, p.Name, p.Type)
	return err
}

// InsertFunctionRef records that a function signature uses a named type.
func (b *BatchTx) InsertFunctionRef(fnID FunctionID, typeID TypeID) error {
	_, err := b.tx.Exec(`
		INSERT INTO function_refs (function_id, type_id)
		VALUES (?, ?)
		ON CONFLICT(function_id, type_id) DO NOTHING
	`, fnID, typeID)
	return err
}

// InsertImpl inserts an impl binding.
func (b *BatchTx) InsertImpl(impl *Impl) error {
	_, err := b.tx.Exec(`
		INSERT INTO impls (contract_id, name, interface_name)
		VALUES (?, ?, ?)
	`, impl.ContractID, impl.Name, impl.InterfaceName)
	return err
}

// InsertTag inserts a tag within the batch.
func (b *BatchTx) InsertTag(tag *Tag) error {
	_, err := b.tx.Exec(insertTagSQL, tag.Subject, tag.SubjectID, tag.Tag, tag.Reason)
	return err
}
