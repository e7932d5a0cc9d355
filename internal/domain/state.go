package domain

import (
	"fmt"
	"math"
	"time"
)

// ElementProgress is the per-element completion and attempt bookkeeping.
type ElementProgress struct {
	Completed   bool      `json:"completed"`
	Score       int       `json:"score"`
	Attempts    int       `json:"attempts"`
	LastAttempt time.Time `json:"lastAttempt"`
}

// Feedback is the message shown after an attempt.
type Feedback struct {
	IsCorrect bool   `json:"isCorrect"`
	Message   string `json:"message,omitempty"`
}

// QuizState is the full scoring, timing and completion record of one quiz-taking session.
type QuizState struct {
	CurrentScore      int                        `json:"currentScore"`
	TotalScore        int                        `json:"totalScore"`
	Progress          map[string]ElementProgress `json:"progress"`
	Feedback          map[string]Feedback        `json:"feedback"`
	StartTime         *time.Time                 `json:"startTime"`
	EndTime           *time.Time                 `json:"endTime"`
	TimeElapsed       int                        `json:"timeElapsed"`
	IsPaused          bool                       `json:"isPaused"`
	IsTimerActive     bool                       `json:"isTimerActive"`
	TotalElements     int                        `json:"totalElements"`
	CompletedElements int                        `json:"completedElements"`
	LastSavedState    *time.Time                 `json:"lastSavedState"`
}

// StateFields lists the top-level keys a persisted QuizState must carry.
var StateFields = []string{
	"currentScore", "totalScore", "progress", "feedback", "startTime", "endTime",
	"timeElapsed", "isPaused", "isTimerActive", "totalElements", "completedElements", "lastSavedState",
}

// NewQuizState returns the zero state with empty maps.
func NewQuizState() QuizState {
	return QuizState{
		Progress: make(map[string]ElementProgress),
		Feedback: make(map[string]Feedback),
	}
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s QuizState) Clone() QuizState {
	out := s
	out.Progress = make(map[string]ElementProgress, len(s.Progress))
	for k, v := range s.Progress {
		out.Progress[k] = v
	}
	out.Feedback = make(map[string]Feedback, len(s.Feedback))
	for k, v := range s.Feedback {
		out.Feedback[k] = v
	}
	out.StartTime = cloneTime(s.StartTime)
	out.EndTime = cloneTime(s.EndTime)
	out.LastSavedState = cloneTime(s.LastSavedState)
	return out
}

// CountCompleted counts progress entries flagged completed.
func (s QuizState) CountCompleted() int {
	n := 0
	for _, p := range s.Progress {
		if p.Completed {
			n++
		}
	}
	return n
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// CompletionSummary is the derived end-of-quiz view.
type CompletionSummary struct {
	TotalElements        int     `json:"totalElements"`
	CompletedElements    int     `json:"completedElements"`
	CompletionPercentage float64 `json:"completionPercentage"`
	CurrentScore         int     `json:"currentScore"`
	TotalScore           int     `json:"totalScore"`
	TimeElapsed          int     `json:"timeElapsed"`
	FormattedTime        string  `json:"formattedTime"`
}

// Summarize derives the completion summary from a state.
func Summarize(s QuizState) CompletionSummary {
	pct := 0.0
	if s.TotalElements > 0 {
		pct = math.Round(float64(s.CompletedElements) / float64(s.TotalElements) * 100)
	}
	return CompletionSummary{
		TotalElements:        s.TotalElements,
		CompletedElements:    s.CompletedElements,
		CompletionPercentage: pct,
		CurrentScore:         s.CurrentScore,
		TotalScore:           s.TotalScore,
		TimeElapsed:          s.TimeElapsed,
		FormattedTime:        FormatElapsed(s.TimeElapsed),
	}
}

// FormatElapsed renders seconds as "{h}h {m}m {s}s", dropping the hour segment when it is zero.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}

// Mode is the lifecycle state of a quiz runtime.
type Mode string

const (
	ModeAuthoring  Mode = "authoring"
	ModePreviewing Mode = "previewing"
	ModeSummarized Mode = "summarized"
)

// Navigation is the page-level view pushed to clients when the runtime moves.
type Navigation struct {
	SessionID string    `json:"sessionId"`
	Mode      Mode      `json:"mode"`
	PageIndex int       `json:"pageIndex"`
	PageCount int       `json:"pageCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}
