// Package deletion resolves a spoken delete reference into either a direct
// soft delete, a confirmation request, or a candidate list. Nothing is ever
// deleted on a guess: only an exact back-reference with a hint id, or an
// explicit Confirm call, mutates the store.
package deletion

import (
	"context"
	"strings"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
	"github.com/trfife/BarnabeeNet-sub002/internal/search"
)

// candidateLimit caps how many matches a vague reference can surface before
// the caller has to narrow.
const candidateLimit = 5

type Outcome string

const (
	// OutcomeDeleted: the back-reference fast path ran and the memory is in
	// the deleted tier.
	OutcomeDeleted Outcome = "deleted"
	// OutcomeAwaitingConfirmation: exactly one candidate; deletion happens
	// only on a Confirm call naming it.
	OutcomeAwaitingConfirmation Outcome = "awaiting_confirmation"
	// OutcomeCandidates: several matches; the caller disambiguates.
	OutcomeCandidates Outcome = "candidates"
	// OutcomeDisambiguationNeeded: a back-reference with nothing to refer to.
	OutcomeDisambiguationNeeded Outcome = "disambiguation_needed"
	// OutcomeNoMatch: the reference matched nothing.
	OutcomeNoMatch Outcome = "no_match"
)

// Resolution is the answer to one delete request. Deleted carries the
// pre-delete snapshot of the memory on the fast path; Candidates carries
// one entry awaiting confirmation or several awaiting disambiguation.
type Resolution struct {
	Outcome    Outcome         `json:"outcome"`
	Deleted    *model.Memory   `json:"deleted,omitempty"`
	Candidates []*model.Memory `json:"candidates,omitempty"`
}

// Searcher is the slice of the search engine the workflow needs.
type Searcher interface {
	Search(ctx context.Context, query, owner string, opts search.Options) (*search.Response, error)
}

// Mutator is the slice of the memory store the workflow needs.
type Mutator interface {
	Get(ctx context.Context, id int64, owner string) (*model.Memory, error)
	SoftDelete(ctx context.Context, id int64, owner, deletedBy string) error
}

type Workflow struct {
	store  Mutator
	search Searcher
}

func NewWorkflow(mut Mutator, searcher Searcher) *Workflow {
	return &Workflow{store: mut, search: searcher}
}

// Resolve maps a reference (already stripped of delete-trigger phrasing by
// the NLU layer) to a Resolution. hintID is the most recently created or
// mentioned memory id, zero when the conversation has none. Errors are
// store or search failures plus the sentinel outcomes of a direct delete
// (NotFound, AlreadyInState); the resolution shapes themselves are values,
// not errors.
func (w *Workflow) Resolve(ctx context.Context, reference, owner string, hintID int64) (*Resolution, error) {
	if isBackReference(reference) {
		if hintID <= 0 {
			return &Resolution{Outcome: OutcomeDisambiguationNeeded}, nil
		}
		deleted, err := w.Confirm(ctx, hintID, owner)
		if err != nil {
			return nil, err
		}
		return &Resolution{Outcome: OutcomeDeleted, Deleted: deleted}, nil
	}

	resp, err := w.search.Search(ctx, reference, owner, search.Options{Limit: candidateLimit})
	if err != nil {
		return nil, err
	}

	switch len(resp.Results) {
	case 0:
		return &Resolution{Outcome: OutcomeNoMatch}, nil
	case 1:
		return &Resolution{
			Outcome:    OutcomeAwaitingConfirmation,
			Candidates: []*model.Memory{resp.Results[0].Memory},
		}, nil
	default:
		candidates := make([]*model.Memory, len(resp.Results))
		for i, r := range resp.Results {
			candidates[i] = r.Memory
		}
		return &Resolution{Outcome: OutcomeCandidates, Candidates: candidates}, nil
	}
}

// Confirm soft-deletes one specific memory. The actor must be able to see
// it, so confirming someone else's private memory reports NotFound rather
// than leaking its existence. Returns the pre-delete snapshot.
func (w *Workflow) Confirm(ctx context.Context, id int64, actor string) (*model.Memory, error) {
	mem, err := w.store.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := w.store.SoftDelete(ctx, id, actor, actor); err != nil {
		return nil, err
	}
	return mem, nil
}

var backReferences = map[string]bool{
	"that":              true,
	"it":                true,
	"this":              true,
	"that one":          true,
	"this one":          true,
	"the last one":      true,
	"the latest one":    true,
	"the previous one":  true,
	"my last one":       true,
	"what i just said":  true,
	"what i said":       true,
	"what i just added": true,
	"the last thing":    true,
}

// isBackReference reports whether the reference points at the conversation
// itself instead of describing a memory.
func isBackReference(reference string) bool {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(reference)) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return backReferences[strings.TrimSpace(b.String())]
}
