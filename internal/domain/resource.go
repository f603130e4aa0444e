// Package domain holds the data model shared by the curation pipeline and
// its HTTP surface.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SearchResult is a raw result as returned by a search provider sub-query.
type SearchResult struct {
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Content        string     `json:"content"`
	RelevanceScore float64    `json:"relevance_score,omitempty"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
}

// RankScore is the composite ordering score: provider relevance plus the
// result timestamp as epoch milliseconds. The timestamp term dwarfs the
// relevance term whenever a timestamp is present, so recency effectively
// decides the order; relevance only breaks ties between undated results.
// This is the documented ordering, kept as-is.
func (r *SearchResult) RankScore() float64 {
	score := r.RelevanceScore
	if r.Timestamp != nil {
		score += float64(r.Timestamp.UnixMilli())
	}
	return score
}

// CuratedResource is a single synthesized recommendation.
type CuratedResource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Format      string `json:"format"`
	Difficulty  string `json:"difficulty"`
}

// CuratedResourceSet is the user-facing output of the curate operation.
type CuratedResourceSet struct {
	Subject     string            `json:"subject"`
	Resources   []CuratedResource `json:"resources"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// PlanOverview summarizes a study plan.
type PlanOverview struct {
	Subject    string   `json:"subject"`
	Duration   string   `json:"duration"`
	ExamDate   string   `json:"examDate"`
	MainTopics []string `json:"mainTopics"`
}

// DailyTask is one day's work inside a weekly plan.
type DailyTask struct {
	Day      string   `json:"day"`
	Tasks    []string `json:"tasks"`
	Duration string   `json:"duration"`
}

// WeeklyPlan covers one week of the study plan.
type WeeklyPlan struct {
	Week       int         `json:"week"`
	Goals      []string    `json:"goals"`
	DailyTasks []DailyTask `json:"dailyTasks"`
}

// StudyPlan is the user-facing output of the plan operation.
type StudyPlan struct {
	Overview        PlanOverview `json:"overview"`
	WeeklyPlans     []WeeklyPlan `json:"weeklyPlans"`
	Recommendations []string     `json:"recommendations"`
}

// CurateRequest is the request body for the curate operation.
type CurateRequest struct {
	Subject string `json:"subject"`
}

// PlanRequest is the request body for the plan operation.
type PlanRequest struct {
	Subject  string `json:"subject"`
	ExamDate string `json:"examDate"` // ISO date, e.g. 2026-06-01
}

// ExamDateLayout is the accepted exam date format.
const ExamDateLayout = "2006-01-02"

// Validate checks the curate request.
func (r *CurateRequest) Validate(maxSubjectLength int) error {
	return validateSubject(r.Subject, maxSubjectLength)
}

// Validate checks the plan request and returns the parsed exam date.
func (r *PlanRequest) Validate(maxSubjectLength int) (time.Time, error) {
	if err := validateSubject(r.Subject, maxSubjectLength); err != nil {
		return time.Time{}, err
	}
	exam, err := time.Parse(ExamDateLayout, strings.TrimSpace(r.ExamDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid exam date %q: expected %s", r.ExamDate, ExamDateLayout)
	}
	return exam, nil
}

func validateSubject(subject string, maxLength int) error {
	s := strings.TrimSpace(subject)
	if s == "" {
		return fmt.Errorf("subject is required")
	}
	if len(s) > maxLength {
		return fmt.Errorf("subject length exceeds maximum of %d characters", maxLength)
	}
	return nil
}

// CacheKey derives a deterministic cache key from normalized request
// parameters. Logically identical requests always map to the same key.
func CacheKey(subject string, plan bool, examDate string) string {
	s := strings.ToLower(strings.TrimSpace(subject))
	if plan {
		return "plan:" + s + ":" + strings.TrimSpace(examDate)
	}
	return "curate:" + s
}

// DaysUntilExam returns the number of days from now until the exam, as a
// ceiling. Past dates yield zero or a negative count; the plan is still
// generated for them.
func DaysUntilExam(now, exam time.Time) int {
	return int(math.Ceil(exam.Sub(now).Hours() / 24))
}

// HealthStatus represents the health of the service and its dependencies.
type HealthStatus struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}
