// Package model defines the memory domain types shared across the engine.
package model

import (
	"strings"
	"time"
)

// MaxKeywords caps the keywords stored per memory.
const MaxKeywords = 5

// MemoryType categorizes what kind of information a memory holds.
type MemoryType string

const (
	TypeFact       MemoryType = "fact"
	TypePreference MemoryType = "preference"
	TypeDecision   MemoryType = "decision"
	TypeEvent      MemoryType = "event"
	TypePerson     MemoryType = "person"
	TypeProject    MemoryType = "project"
	TypeMeeting    MemoryType = "meeting"
	TypeJournal    MemoryType = "journal"
)

// MemoryTypes lists every valid memory type.
var MemoryTypes = []MemoryType{
	TypeFact, TypePreference, TypeDecision, TypeEvent,
	TypePerson, TypeProject, TypeMeeting, TypeJournal,
}

// Valid reports whether t is a known memory type.
func (t MemoryType) Valid() bool {
	for _, mt := range MemoryTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// SourceType records how a memory entered the store.
type SourceType string

const (
	SourceExplicit  SourceType = "explicit"
	SourceExtracted SourceType = "extracted"
	SourceMeeting   SourceType = "meeting"
	SourceJournal   SourceType = "journal"
	SourceMigration SourceType = "migration"
)

// SourceTypes lists every valid source type.
var SourceTypes = []SourceType{
	SourceExplicit, SourceExtracted, SourceMeeting, SourceJournal, SourceMigration,
}

// Valid reports whether s is a known source type.
func (s SourceType) Valid() bool {
	for _, st := range SourceTypes {
		if s == st {
			return true
		}
	}
	return false
}

// Visibility controls which owners can see a memory beyond its creator.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityFamily  Visibility = "family"
	VisibilityAll     Visibility = "all"
)

// Valid reports whether v is a known visibility level.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityFamily || v == VisibilityAll
}

// Status is the persistence tier a memory row currently occupies.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// Memory is one stored memory. Summary is the one-line gist; Content the
// full text. Both feed the text index; the embedding input leads with the
// summary so the gist dominates topical weighting.
type Memory struct {
	ID             int64      `json:"id"`
	Summary        string     `json:"summary"`
	Content        string     `json:"content"`
	MemoryType     MemoryType `json:"memory_type"`
	SourceType     SourceType `json:"source_type"`
	SourceID       string     `json:"source_id,omitempty"`
	Owner          string     `json:"owner"`
	Visibility     Visibility `json:"visibility"`
	Keywords       []string   `json:"keywords,omitempty"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	DeletedBy      string     `json:"deleted_by,omitempty"`
	AccessCount    int64      `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// VisibleTo reports whether owner may see this memory: owners always see
// their own, and family/all visibility opens it to everyone in the household.
func (m *Memory) VisibleTo(owner string) bool {
	if m.Owner == owner {
		return true
	}
	return m.Visibility == VisibilityFamily || m.Visibility == VisibilityAll
}

// EmbeddingInput is the text sent to the embedder: summary first, then
// content, so the short gist carries the topical weight.
func (m *Memory) EmbeddingInput() string {
	summary := strings.TrimSpace(m.Summary)
	content := strings.TrimSpace(m.Content)
	if summary == "" {
		return content
	}
	if content == "" {
		return summary
	}
	return summary + "\n\n" + content
}

// NormalizeKeywords lowercases, trims, dedupes, and caps a keyword list at
// MaxKeywords, preserving first-seen order.
func NormalizeKeywords(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	var out []string
	for _, kw := range raw {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}
