// Package contextbuild declares the contracts for the retrieval side of
// the pipeline. The real retrieval stack (vector search, reranking,
// long-term memory) lives outside this repository; the pipeline only
// ever sees these two narrow interfaces.
package contextbuild

import (
	"context"

	"podium/internal/compliance"
)

// Builder returns a bounded text blob of retrieved and personalized
// context for a draft request. Implementations must not fail the
// pipeline: any internal error degrades to an empty string.
type Builder interface {
	Build(ctx context.Context, ownerID, topic, category string) string
}

// NoopBuilder supplies no context. Used in dev mode and wherever the
// retrieval stack is unavailable.
type NoopBuilder struct{}

func (NoopBuilder) Build(context.Context, string, string, string) string { return "" }

// FactSource derives the numeric-fact allowlist for a draft from
// user-supplied source material. A nil allowlist disables the fact
// guard stage without otherwise affecting the pipeline.
type FactSource interface {
	Allowlist(sourceMaterial string) map[string]struct{}
}

// TokenFactSource treats every numeric token present in the source
// material as evidenced.
type TokenFactSource struct{}

func (TokenFactSource) Allowlist(sourceMaterial string) map[string]struct{} {
	if sourceMaterial == "" {
		return nil
	}
	set := make(map[string]struct{})
	for _, tok := range compliance.NumericTokens(sourceMaterial) {
		set[tok] = struct{}{}
	}
	return set
}
