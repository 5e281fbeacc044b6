package store

// memoryColumns is the canonical column list scanned by scanMemory.
const memoryColumns = `id, summary, content, memory_type, source_type, source_id,
	owner, visibility, keywords, status, created_at, deleted_at, deleted_by,
	access_count, last_accessed_at`

const qualifiedMemoryColumns = `m.id, m.summary, m.content, m.memory_type,
	m.source_type, m.source_id, m.owner, m.visibility, m.keywords, m.status,
	m.created_at, m.deleted_at, m.deleted_by, m.access_count, m.last_accessed_at`

// visibleClause scopes a query to memories the requesting owner may see.
// Bind the owner once per use.
const visibleClause = `(m.owner = ? OR m.visibility IN ('family', 'all'))`

const insertMemoryQuery = `
	INSERT INTO memories (summary, content, memory_type, source_type, source_id,
		owner, visibility, keywords, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'active')`

const getMemoryQuery = `
	SELECT ` + memoryColumns + `
	FROM memories m
	WHERE m.id = ? AND m.status = 'active' AND ` + visibleClause

const updateMemoryQuery = `
	UPDATE memories
	SET summary = ?, content = ?, memory_type = ?, keywords = ?
	WHERE id = ? AND status = 'active'`

const softDeleteQuery = `
	UPDATE memories
	SET status = 'deleted', deleted_at = datetime('now'), deleted_by = ?
	WHERE id = ? AND status = 'active' AND (owner = ? OR visibility IN ('family', 'all'))`

const restoreQuery = `
	UPDATE memories
	SET status = 'active', deleted_at = NULL, deleted_by = NULL
	WHERE id = ? AND status = 'deleted'`

const recordAccessQuery = `
	UPDATE memories
	SET access_count = access_count + 1, last_accessed_at = datetime('now')
	WHERE id IN (%s)`

const textCandidatesQuery = `
	SELECT ` + qualifiedMemoryColumns + `, bm25(memories_fts, 2.0, 1.0) AS score
	FROM memories_fts f
	JOIN memories m ON m.id = f.rowid
	WHERE memories_fts MATCH ?
	  AND m.status = 'active'
	  AND ` + visibleClause + `
	ORDER BY score
	LIMIT ?`

const vectorCandidatesQuery = `
	SELECT ` + qualifiedMemoryColumns + `, v.distance
	FROM vec_memories v
	JOIN memories m ON m.id = v.memory_id
	WHERE v.embedding MATCH ? AND k = ?
	  AND m.status = 'active'
	  AND ` + visibleClause + `
	ORDER BY v.distance
	LIMIT ?`

const searchDeletedQuery = `
	SELECT ` + qualifiedMemoryColumns + `
	FROM memories m
	WHERE m.status = 'deleted'
	  AND (m.summary LIKE ? OR m.content LIKE ?)
	ORDER BY m.deleted_at DESC
	LIMIT ?`

const searchActiveSubstringQuery = `
	SELECT ` + qualifiedMemoryColumns + `
	FROM memories m
	WHERE m.status = 'active'
	  AND (m.summary LIKE ? OR m.content LIKE ?)
	ORDER BY m.created_at DESC, m.id DESC
	LIMIT ?`

const searchLogQuery = `
	SELECT id, event, memory_id, actor, owner, detail, created_at
	FROM op_log
	WHERE event LIKE ? OR detail LIKE ?
	ORDER BY id DESC
	LIMIT ?`

const missingEmbeddingsQuery = `
	SELECT ` + qualifiedMemoryColumns + `
	FROM memories m
	WHERE m.status = 'active'
	  AND m.id > ?
	  AND NOT EXISTS (SELECT 1 FROM vec_memories v WHERE v.memory_id = m.id)
	ORDER BY m.id
	LIMIT ?`
