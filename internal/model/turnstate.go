package model

import (
	"time"
)

// AnalysisStatus tracks the lifecycle of the coordinator's request analysis.
type AnalysisStatus string

const (
	AnalysisAnalyzing AnalysisStatus = "analyzing"
	AnalysisCompleted AnalysisStatus = "completed"
)

// RequestAnalysis records the original request and the coordinator's
// restatement of it.
type RequestAnalysis struct {
	Original string         `json:"original"`
	Restated string         `json:"restated,omitempty"`
	Status   AnalysisStatus `json:"status"`
}

// Finding is a titled piece of information a handler recorded for the
// coordinator's final summary.
type Finding struct {
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TurnState is the per-turn accumulator handlers write findings into.
// It is created fresh at the start of a turn and owned by exactly one
// handler at a time; the turn pipeline is sequential, so no locking.
type TurnState struct {
	Analysis     RequestAnalysis      `json:"request_analysis"`
	Findings     map[string][]Finding `json:"findings"`
	FinalSummary string               `json:"final_summary,omitempty"`
}

// NewTurnState creates the accumulator for one turn.
func NewTurnState(original string) *TurnState {
	return &TurnState{
		Analysis: RequestAnalysis{
			Original: original,
			Status:   AnalysisAnalyzing,
		},
		Findings: make(map[string][]Finding),
	}
}

// Record appends a titled finding under the given handler name.
func (s *TurnState) Record(handler, title, content string) {
	s.Findings[handler] = append(s.Findings[handler], Finding{
		Title:      title,
		Content:    content,
		RecordedAt: time.Now(),
	})
}

// HasFindings reports whether any handler recorded anything this turn.
func (s *TurnState) HasFindings() bool {
	for _, fs := range s.Findings {
		if len(fs) > 0 {
			return true
		}
	}
	return false
}
