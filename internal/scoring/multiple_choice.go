package scoring

import (
	"math/rand"

	"canvas-quiz-service/internal/domain"
)

// MultipleChoice grades a selection of option ids.
//
// score = round(max(0, correctSelected - incorrectSelected - missedCorrect) / totalCorrect * 100)
//
// Unknown ids are ignored and duplicates collapse. A single-answer question only keeps the last
// selected id.
func MultipleChoice(elementID string, content domain.MultipleChoiceContent, selected []string) Result {
	known := make(map[string]struct{}, len(content.Options))
	for _, opt := range content.Options {
		known[opt.ID] = struct{}{}
	}

	picked := make(map[string]struct{})
	for _, id := range selected {
		if _, ok := known[id]; !ok {
			continue
		}
		if !content.AllowMultiple {
			clear(picked)
		}
		picked[id] = struct{}{}
	}

	correct := content.CorrectOptionIDs()
	var correctSelected, incorrectSelected, missed int
	for id := range picked {
		if _, ok := correct[id]; ok {
			correctSelected++
		} else {
			incorrectSelected++
		}
	}
	for id := range correct {
		if _, ok := picked[id]; !ok {
			missed++
		}
	}

	score := percent(max(0, correctSelected-incorrectSelected-missed), len(correct))
	res := Result{
		ElementID: elementID,
		Score:     score,
		Max:       MaxScore,
		Completed: score == MaxScore,
		Correct:   score == MaxScore,
		Graded:    true,
	}
	switch {
	case res.Correct:
		res.Message = "Correct!"
	case correctSelected > 0:
		res.Message = "Partially correct. Try again."
	default:
		res.Message = "Incorrect. Try again."
	}
	return res
}

// ShuffledOptions returns the display order for one mount of the widget. The canonical option slice
// is never modified; ids travel with their options.
func ShuffledOptions(content domain.MultipleChoiceContent, rng *rand.Rand) []domain.Option {
	out := make([]domain.Option, len(content.Options))
	copy(out, content.Options)
	if !content.ShuffleOptions || rng == nil {
		return out
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
