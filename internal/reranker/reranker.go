// Package reranker reorders retrieval candidates by score and attaches
// a normalised score in [0, 1] to each. It never mutates its input.
package reranker

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driven"
)

// DefaultScoreKey is the map key holding the raw relevance score in
// loosely-typed candidate input.
const DefaultScoreKey = "score"

// Error reports a candidate whose score could not be interpreted.
type Error struct {
	Index int
	Key   string
	Value any
}

func (e *Error) Error() string {
	return fmt.Sprintf("candidate %d: %q is not numeric (got %T)", e.Index, e.Key, e.Value)
}

// Reranker sorts candidates by raw score, descending, and min-max
// normalises the scores. The sort is stable so equal scores keep their
// retrieval order.
type Reranker struct {
	scoreKey string
}

// Option configures the reranker.
type Option func(*Reranker)

// WithScoreKey sets the map key read by FromMaps.
func WithScoreKey(key string) Option {
	return func(r *Reranker) {
		if key != "" {
			r.scoreKey = key
		}
	}
}

// New creates a reranker.
func New(opts ...Option) *Reranker {
	r := &Reranker{scoreKey: DefaultScoreKey}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ driven.Reranker = (*Reranker)(nil)

// Rerank returns a new slice sorted by Score descending, with
// ScoreNormalized set via min-max over the batch. An empty input
// returns an empty result.
func (r *Reranker) Rerank(candidates []domain.Candidate) ([]domain.Candidate, error) {
	if len(candidates) == 0 {
		return []domain.Candidate{}, nil
	}

	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	lo, hi := out[len(out)-1].Score, out[0].Score
	span := hi - lo
	for i := range out {
		if span == 0 {
			// All scores equal: everything is equally relevant.
			out[i].ScoreNormalized = 1.0
			continue
		}
		out[i].ScoreNormalized = round6((out[i].Score - lo) / span)
	}

	return out, nil
}

// FromMaps converts loosely-typed candidate maps, as produced by JSON
// decoding, into typed candidates. A missing score defaults to 0.0; a
// present but non-numeric score is an *Error naming the offending
// candidate.
func (r *Reranker) FromMaps(items []map[string]any) ([]domain.Candidate, error) {
	candidates := make([]domain.Candidate, 0, len(items))
	for i, item := range items {
		c := domain.Candidate{}
		if id, ok := item["id"].(string); ok {
			c.ID = id
		}
		if text, ok := item["text"].(string); ok {
			c.Text = text
		}
		if md, ok := item["metadata"].(map[string]any); ok {
			c.Metadata = md
		}

		raw, present := item[r.scoreKey]
		if !present || raw == nil {
			c.Score = 0.0
		} else {
			score, ok := toFloat(raw)
			if !ok {
				return nil, &Error{Index: i, Key: r.scoreKey, Value: raw}
			}
			c.Score = score
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// ScoreFromDistance maps a vector distance to a similarity score via
// 1/(1+d). A nil distance scores 0.0.
func ScoreFromDistance(d *float64) float64 {
	if d == nil {
		return 0.0
	}
	return 1.0 / (1.0 + *d)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
