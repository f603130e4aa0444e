package service

import (
	"sort"
	"strings"

	"github.com/jonesrussell/studysearch/internal/domain"
)

// promoMarkers are title substrings that mark a result as promotional
// rather than instructional.
var promoMarkers = []string{
	"sponsored",
	"advertisement",
	"discount",
	"coupon",
	"% off",
	"buy now",
	"limited offer",
}

// rankPipeline applies the full filter, dedup, rank, truncate sequence to a
// raw result stream.
func rankPipeline(results []domain.SearchResult, subject string, minContent, topK int) []domain.SearchResult {
	kept := filterResults(results, subject, minContent)
	kept = dedupeByURL(kept)
	rankResults(kept)
	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}

// mergeResults flattens per-sub-query result slices into one stream,
// preserving sub-query order.
func mergeResults(streams [][]domain.SearchResult) []domain.SearchResult {
	var merged []domain.SearchResult
	for _, stream := range streams {
		merged = append(merged, stream...)
	}
	return merged
}

// filterResults keeps results whose title mentions the subject, whose
// content is long enough to be useful, and whose title is not promotional.
func filterResults(results []domain.SearchResult, subject string, minContent int) []domain.SearchResult {
	needle := strings.ToLower(strings.TrimSpace(subject))
	kept := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		title := strings.ToLower(r.Title)
		if !strings.Contains(title, needle) {
			continue
		}
		if len(r.Content) <= minContent {
			continue
		}
		if isPromotional(title) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func isPromotional(lowerTitle string) bool {
	for _, marker := range promoMarkers {
		if strings.Contains(lowerTitle, marker) {
			return true
		}
	}
	return false
}

// dedupeByURL keeps the first occurrence of each URL in traversal order.
func dedupeByURL(results []domain.SearchResult) []domain.SearchResult {
	seen := make(map[string]struct{}, len(results))
	kept := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		kept = append(kept, r)
	}
	return kept
}

// rankResults orders results by descending composite score. The sort is
// stable so equal scores keep traversal order.
func rankResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RankScore() > results[j].RankScore()
	})
}
