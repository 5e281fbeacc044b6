package store

import (
	"context"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

// Candidate is one ranked row from a single retrieval signal. Score carries
// the signal's native value: bm25 (more negative is better) for text, cosine
// similarity in [0,1] for vectors.
type Candidate struct {
	Memory *model.Memory
	Score  float64
}

// TextCandidates runs the full-text signal: an FTS5 match over summary and
// content (summary weighted double), scoped to the active tier and owner
// visibility, best bm25 first.
func (s *Store) TextCandidates(ctx context.Context, query, owner string, limit int) ([]Candidate, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, textCandidatesQuery, match, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("text candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		m, err := scanMemory(rows, &c.Score)
		if err != nil {
			return nil, err
		}
		c.Memory = m
		out = append(out, c)
	}
	return out, rows.Err()
}

// VectorCandidates runs the vector signal: KNN over the vec0 table joined
// against the active tier with owner visibility. The KNN k over-fetches
// beyond limit because the join filter discards invisible and deleted rows
// after the nearest-neighbor scan.
func (s *Store) VectorCandidates(ctx context.Context, embedding []float32, owner string, limit int) ([]Candidate, error) {
	if len(embedding) != s.dims {
		return nil, fmt.Errorf("embedding has %d dimensions, store expects %d", len(embedding), s.dims)
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	k := 4 * limit
	if k < 64 {
		k = 64
	}

	rows, err := s.db.QueryContext(ctx, vectorCandidatesQuery, blob, k, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("vector candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var distance float64
		m, err := scanMemory(rows, &distance)
		if err != nil {
			return nil, err
		}
		out = append(out, Candidate{Memory: m, Score: similarityFromDistance(distance)})
	}
	return out, rows.Err()
}

// similarityFromDistance maps the L2 distance between unit vectors to cosine
// similarity: d^2 = 2(1-cos), so cos = 1 - d^2/2. Clamped to [0,1].
func similarityFromDistance(d float64) float64 {
	sim := 1 - d*d/2
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// buildMatchQuery turns free text into an FTS5 query: tokens quoted to
// disarm operator syntax, OR-joined so partial matches still rank.
func buildMatchQuery(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !isWordRune(r)
	})
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " OR ")
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '\'', r > 127:
		return true
	}
	return false
}
