package synthesis

import (
	"fmt"
	"strings"

	"github.com/jonesrussell/studysearch/internal/domain"
)

// excerptMaxLength bounds each source excerpt embedded in a prompt so the
// prompt size stays proportional to the number of sources.
const excerptMaxLength = 300

const curationPrompt = `You are a learning advisor. Based on the search results below, recommend the 5 best learning resources for studying %s.

Search results:
%s

Respond with ONLY a JSON object, no other text, in exactly this shape:
{"resources": [{"title": "...", "url": "...", "description": "...", "format": "video|course|article|book|interactive", "difficulty": "beginner|intermediate|advanced"}]}

Use only URLs that appear in the search results. Keep each description under 200 characters.`

const planPrompt = `You are a study planner. Create a study plan for %s. The exam is on %s, which is %d day(s) from now (%d week(s)).

Curriculum content from the web:
%s

Study technique content from the web:
%s

Respond with ONLY a JSON object, no other text, in exactly this shape:
{
  "overview": {"subject": "...", "duration": "...", "examDate": "...", "mainTopics": ["..."]},
  "weeklyPlans": [{"week": 1, "goals": ["..."], "dailyTasks": [{"day": "Monday", "tasks": ["..."], "duration": "2h"}]}],
  "recommendations": ["..."]
}

Cover every week up to the exam. If the exam date has already passed, produce a one-week refresher plan and say so in the overview duration.`

// buildCurationPrompt composes the curation prompt from ranked results.
func buildCurationPrompt(subject string, sources []domain.SearchResult) string {
	return fmt.Sprintf(curationPrompt, subject, formatExcerpts(sources))
}

// buildPlanPrompt composes the study-plan prompt from curriculum and tips
// content.
func buildPlanPrompt(subject, examDate string, days int, curriculum, tips []domain.SearchResult) string {
	weeks := days / 7
	if weeks < 1 {
		weeks = 1
	}
	return fmt.Sprintf(planPrompt, subject, examDate, days, weeks,
		formatExcerpts(curriculum), formatExcerpts(tips))
}

// formatExcerpts renders sources as a bulleted list of truncated excerpts.
func formatExcerpts(sources []domain.SearchResult) string {
	if len(sources) == 0 {
		return "(no results)"
	}

	var sb strings.Builder
	for _, src := range sources {
		sb.WriteString("- ")
		sb.WriteString(src.Title)
		sb.WriteString(" (")
		sb.WriteString(src.URL)
		sb.WriteString("): ")
		sb.WriteString(truncate(src.Content, excerptMaxLength))
		sb.WriteString("\n")
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
