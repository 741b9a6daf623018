package metrics

import (
	"time"

	"github.com/google/uuid"
)

// Status is the overall result of one run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial" // posted, but with a placeholder or without the image
	StatusNoNews  Status = "no_news"
	StatusFailure Status = "failure"
)

// Outcome is how a single stage ended.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
)

// Stage names, in pipeline order.
const (
	StageFetchIndex   = "fetch_index"
	StageFindLink     = "find_link"
	StageFetchArticle = "fetch_article"
	StageExtract      = "extract"
	StageSummarize    = "summarize"
	StageTranslate    = "translate"
	StagePublish      = "publish"
)

type StageResult struct {
	Name     string
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

// Report records one pipeline run. Runs are sequential, so it is not synchronized.
type Report struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	ArticleLink string
	PostKind    string
	Stages      []StageResult

	noNews bool
}

func NewReport() *Report {
	return &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
}

// Record appends a stage that started at started.
func (r *Report) Record(name string, outcome Outcome, started time.Time, err error) {
	r.Stages = append(r.Stages, StageResult{
		Name:     name,
		Outcome:  outcome,
		Duration: time.Since(started),
		Err:      err,
	})
}

// MarkNoNews ends the run without a post because nothing was found to post.
func (r *Report) MarkNoNews() {
	r.noNews = true
}

func (r *Report) Finish() {
	r.FinishedAt = time.Now()
}

// Stage returns the recorded result for name.
func (r *Report) Stage(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// Status derives the run status: any failed stage wins, then "no news", then any degraded stage.
func (r *Report) Status() Status {
	degraded := false
	for _, s := range r.Stages {
		switch s.Outcome {
		case OutcomeFailed:
			return StatusFailure
		case OutcomeDegraded:
			degraded = true
		}
	}
	if r.noNews {
		return StatusNoNews
	}
	if degraded {
		return StatusPartial
	}
	return StatusSuccess
}

// Err returns the first stage error that failed the run.
func (r *Report) Err() error {
	for _, s := range r.Stages {
		if s.Outcome == OutcomeFailed {
			return s.Err
		}
	}
	return nil
}

func (r *Report) GetStats() map[string]interface{} {
	stages := make(map[string]string, len(r.Stages))
	for _, s := range r.Stages {
		stages[s.Name] = string(s.Outcome)
	}

	lastError := ""
	if err := r.Err(); err != nil {
		lastError = err.Error()
	}

	total := time.Duration(0)
	if !r.FinishedAt.IsZero() {
		total = r.FinishedAt.Sub(r.StartedAt)
	}

	return map[string]interface{}{
		"run_id":             r.RunID.String(),
		"status":             string(r.Status()),
		"article_link":       r.ArticleLink,
		"post_kind":          r.PostKind,
		"stages":             stages,
		"processing_time_ms": total.Milliseconds(),
		"last_run_time":      r.StartedAt.Format(time.RFC3339),
		"last_error":         lastError,
	}
}
