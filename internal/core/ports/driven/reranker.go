package driven

import "github.com/loankit/docpipe/internal/core/domain"

// Reranker orders candidates by score and fills in ScoreNormalized.
// The pipeline treats a nil or failing reranker as a soft failure and
// falls back to the candidates' original order.
type Reranker interface {
	Rerank(candidates []domain.Candidate) ([]domain.Candidate, error)
}
