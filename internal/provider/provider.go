// Package provider implements clients for external web search providers.
package provider

import (
	"context"
	"errors"

	"github.com/jonesrussell/studysearch/internal/domain"
)

// Provider error kinds.
var (
	ErrUnauthorized   = errors.New("invalid API key")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrInvalidRequest = errors.New("invalid request parameters")
	ErrSearchFailed   = errors.New("search request failed")
)

// Query describes one search sub-query.
type Query struct {
	// Query is the natural-language query text.
	Query string
	// Depth is the provider search depth hint ("basic" or "advanced").
	Depth string
	// MaxResults bounds the number of results for this sub-query.
	MaxResults int
	// IncludeDomains restricts results to the listed source domains.
	IncludeDomains []string
}

// Searcher executes a single search sub-query against a provider.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]domain.SearchResult, error)
}
