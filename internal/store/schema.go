package store

// schema contains the SQL statements to create the abilens database schema.
const schema = `
-- One row per discovered ABI file, including files that failed to parse
CREATE TABLE IF NOT EXISTS contracts (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    path        TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    size_bytes  INTEGER NOT NULL DEFAULT 0,
    parse_error TEXT,
    abi_json    TEXT
);

CREATE INDEX IF NOT EXISTS idx_contracts_name ON contracts(name);

-- Structs, enums and events
CREATE TABLE IF NOT EXISTS types (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    contract_id INTEGER NOT NULL,
    name        TEXT NOT NULL,
    kind        TEXT NOT NULL,
    event_kind  TEXT,
    FOREIGN KEY (contract_id) REFERENCES contracts(id)
);

CREATE INDEX IF NOT EXISTS idx_types_contract ON types(contract_id);
CREATE INDEX IF NOT EXISTS idx_types_name ON types(name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_types_unique ON types(contract_id, kind, name);

-- Members, variants and event fields in declaration order
CREATE TABLE IF NOT EXISTS members (
    type_id     INTEGER NOT NULL,
    position    INTEGER NOT NULL,
    name        TEXT NOT NULL,
    type_string TEXT NOT NULL,
    PRIMARY KEY (type_id, position),
    FOREIGN KEY (type_id) REFERENCES types(id)
);

-- Direct references from one named type to another
CREATE TABLE IF NOT EXISTS type_refs (
    source_id INTEGER NOT NULL,
    target_id INTEGER NOT NULL,
    PRIMARY KEY (source_id, target_id),
    FOREIGN KEY (source_id) REFERENCES types(id),
    FOREIGN KEY (target_id) REFERENCES types(id)
);

CREATE INDEX IF NOT EXISTS idx_type_refs_target ON type_refs(target_id);

-- Functions, interface items, the constructor and the l1 handler
CREATE TABLE IF NOT EXISTS functions (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    contract_id      INTEGER NOT NULL,
    name             TEXT NOT NULL,
    kind             TEXT NOT NULL,
    interface_name   TEXT NOT NULL DEFAULT '',
    state_mutability TEXT,
    FOREIGN KEY (contract_id) REFERENCES contracts(id)
);

CREATE INDEX IF NOT EXISTS idx_functions_contract ON functions(contract_id);
CREATE INDEX IF NOT EXISTS idx_functions_name ON functions(name);

CREATE TABLE IF NOT EXISTS params (
    function_id INTEGER NOT NULL,
    direction   TEXT NOT NULL,
    position    INTEGER NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    type_string TEXT NOT NULL,
    PRIMARY KEY (function_id, direction, position),
    FOREIGN KEY (function_id) REFERENCES functions(id)
);

-- Named types used by a function's inputs or outputs
CREATE TABLE IF NOT EXISTS function_refs (
    function_id INTEGER NOT NULL,
    type_id     INTEGER NOT NULL,
    PRIMARY KEY (function_id, type_id),
    FOREIGN KEY (function_id) REFERENCES functions(id),
    FOREIGN KEY (type_id) REFERENCES types(id)
);

CREATE INDEX IF NOT EXISTS idx_function_refs_type ON function_refs(type_id);

CREATE TABLE IF NOT EXISTS impls (
    contract_id    INTEGER NOT NULL,
    name           TEXT NOT NULL,
    interface_name TEXT NOT NULL,
    PRIMARY KEY (contract_id, name),
    FOREIGN KEY (contract_id) REFERENCES contracts(id)
);

-- Tags on types or functions
CREATE TABLE IF NOT EXISTS tags (
    subject    TEXT NOT NULL,
    subject_id INTEGER NOT NULL,
    tag        TEXT NOT NULL,
    reason     TEXT,
    PRIMARY KEY (subject, subject_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);

-- Metadata table for index info
CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT
);
`
