package store

// DefaultVectorDimensions matches the default embedding model output width.
const DefaultVectorDimensions = 768

const schema = `
CREATE TABLE IF NOT EXISTS memories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    summary TEXT NOT NULL,
    content TEXT NOT NULL,
    memory_type TEXT NOT NULL DEFAULT 'fact',
    source_type TEXT NOT NULL DEFAULT 'explicit',
    source_id TEXT,
    owner TEXT NOT NULL,
    visibility TEXT NOT NULL DEFAULT 'private',
    keywords TEXT,
    status TEXT NOT NULL DEFAULT 'active',
    created_at DATETIME DEFAULT (datetime('now')),
    deleted_at DATETIME,
    deleted_by TEXT,
    access_count INTEGER DEFAULT 0,
    last_accessed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_memories_owner_status ON memories(owner, status);
CREATE INDEX IF NOT EXISTS idx_memories_status ON memories(status);
CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(memory_type);
CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at);

CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
    summary, content,
    content='memories', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
    INSERT INTO memories_fts(rowid, summary, content)
    VALUES (new.id, new.summary, new.content);
END;

CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, summary, content)
    VALUES ('delete', old.id, old.summary, old.content);
END;

CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE OF summary, content ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, summary, content)
    VALUES ('delete', old.id, old.summary, old.content);
    INSERT INTO memories_fts(rowid, summary, content)
    VALUES (new.id, new.summary, new.content);
END;

CREATE TABLE IF NOT EXISTS op_log (
    id TEXT PRIMARY KEY,
    event TEXT NOT NULL,
    memory_id INTEGER,
    actor TEXT,
    owner TEXT,
    detail TEXT,
    created_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_op_log_created ON op_log(created_at);
CREATE INDEX IF NOT EXISTS idx_op_log_memory ON op_log(memory_id);
`

// vec0 requires the dimension count inline, so the vector table is created
// separately with the configured width. memory_id mirrors memories.id; the
// row survives soft deletion so restore needs no re-embedding, and is removed
// only on hard delete.
const vecSchemaFormat = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_memories USING vec0(
    memory_id INTEGER PRIMARY KEY,
    embedding FLOAT[%d]
);
`
