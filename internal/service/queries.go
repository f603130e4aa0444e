package service

import (
	"fmt"

	"github.com/jonesrussell/studysearch/internal/config"
	"github.com/jonesrussell/studysearch/internal/provider"
)

// Domain allow-lists per query intent. Video and platform lists steer the
// curation sub-queries toward known learning sites; the plan sub-queries
// search the open web.
var (
	videoDomains = []string{
		"youtube.com",
		"coursera.org",
		"udemy.com",
		"khanacademy.org",
	}
	platformDomains = []string{
		"freecodecamp.org",
		"codecademy.com",
		"edx.org",
		"github.com",
	}
)

// curationQueries builds the video-focused and platform-focused sub-queries
// for the curate operation.
func curationQueries(subject string, cfg *config.SearchConfig) []provider.Query {
	return []provider.Query{
		{
			Query:          fmt.Sprintf("best %s video courses tutorials", subject),
			Depth:          cfg.SearchDepth,
			MaxResults:     cfg.MaxResults,
			IncludeDomains: videoDomains,
		},
		{
			Query:          fmt.Sprintf("best %s interactive learning platforms", subject),
			Depth:          cfg.SearchDepth,
			MaxResults:     cfg.MaxResults,
			IncludeDomains: platformDomains,
		},
	}
}

// planQueries builds the curriculum and study-tips sub-queries for the plan
// operation, in that order.
func planQueries(subject string, cfg *config.SearchConfig) []provider.Query {
	return []provider.Query{
		{
			Query:      fmt.Sprintf("%s exam syllabus curriculum main topics", subject),
			Depth:      cfg.SearchDepth,
			MaxResults: cfg.MaxResults,
		},
		{
			Query:      fmt.Sprintf("how to study %s effectively techniques", subject),
			Depth:      cfg.SearchDepth,
			MaxResults: cfg.MaxResults,
		},
	}
}
