package service

import "time"

// Exposed for external tests.
var (
	RankPipeline  = rankPipeline
	FilterResults = filterResults
	DedupeByURL   = dedupeByURL
	MergeResults  = mergeResults
)

// SetNowFunc overrides the clock used for days-until-exam computation.
func (s *CurationService) SetNowFunc(now func() time.Time) {
	s.now = now
}
