// Package scoring holds one evaluation policy per quiz widget. Policies are pure: they read canonical
// element content plus the quiz taker's input and return a Result. Reporting results to the session
// store is the caller's job.
package scoring

import "math"

// MaxScore is the denominator every graded widget reports.
const MaxScore = 100

// Result is the outcome of one evaluation.
type Result struct {
	ElementID string `json:"elementId"`
	Score     int    `json:"score"`
	Max       int    `json:"max"`
	Completed bool   `json:"completed"`
	Correct   bool   `json:"correct"`
	Message   string `json:"message,omitempty"`
	// Graded is false for widgets whose outcome stays local to the widget.
	Graded bool `json:"graded"`
}

// Reporter receives graded results. The session store implements it.
type Reporter interface {
	UpdateScore(elementID string, score, maxScore int)
	UpdateProgress(elementID string, completed bool)
	SetFeedback(elementID string, isCorrect bool, message string)
}

// Report forwards a graded result to r. Ungraded results are dropped.
func Report(r Reporter, res Result) {
	if !res.Graded {
		return
	}
	r.UpdateScore(res.ElementID, res.Score, res.Max)
	r.UpdateProgress(res.ElementID, res.Completed)
	r.SetFeedback(res.ElementID, res.Correct, res.Message)
}

// percent returns round(part/whole*100), or 0 when whole is not positive.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
