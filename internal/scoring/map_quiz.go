package scoring

import (
	"fmt"

	"canvas-quiz-service/internal/domain"
)

// MapBoard tracks the markers placed and regions selected on one map-quiz element. Correctness comes
// from the authoring-time IsCorrect flags; there is no distance-based grading.
type MapBoard struct {
	elementID string
	graded    bool
	content   domain.MapQuizContent
	markers   map[string]bool
	regions   map[string]bool
}

func NewMapBoard(elementID string, content domain.MapQuizContent, graded bool) *MapBoard {
	return &MapBoard{
		elementID: elementID,
		graded:    graded,
		content:   content,
		markers:   make(map[string]bool),
		regions:   make(map[string]bool),
	}
}

// PlaceMarker records a placed marker. Unknown markers are ignored.
func (b *MapBoard) PlaceMarker(markerID string) (Result, bool) {
	for _, m := range b.content.Markers {
		if m.ID == markerID {
			b.markers[markerID] = m.IsCorrect
			return b.result(), true
		}
	}
	return b.result(), false
}

// SelectRegion records a selected region. Unknown regions are ignored.
func (b *MapBoard) SelectRegion(regionID string) (Result, bool) {
	for _, r := range b.content.Regions {
		if r.ID == regionID {
			b.regions[regionID] = r.IsCorrect
			return b.result(), true
		}
	}
	return b.result(), false
}

// Correctness returns the per-marker and per-region flags of what has been placed so far.
func (b *MapBoard) Correctness() (markers, regions map[string]bool) {
	markers = make(map[string]bool, len(b.markers))
	for k, v := range b.markers {
		markers[k] = v
	}
	regions = make(map[string]bool, len(b.regions))
	for k, v := range b.regions {
		regions[k] = v
	}
	return markers, regions
}

func (b *MapBoard) result() Result {
	targets := 0
	for _, m := range b.content.Markers {
		if m.IsCorrect {
			targets++
		}
	}
	for _, r := range b.content.Regions {
		if r.IsCorrect {
			targets++
		}
	}
	hits, misses := 0, 0
	for _, ok := range b.markers {
		if ok {
			hits++
		} else {
			misses++
		}
	}
	for _, ok := range b.regions {
		if ok {
			hits++
		} else {
			misses++
		}
	}
	done := targets > 0 && hits == targets && misses == 0
	res := Result{
		ElementID: b.elementID,
		Score:     percent(max(0, hits-misses), targets),
		Max:       MaxScore,
		Completed: done,
		Correct:   done,
		Graded:    b.graded,
	}
	if done {
		res.Message = "All locations found!"
	} else {
		res.Message = fmt.Sprintf("%d of %d locations found.", hits, targets)
	}
	return res
}
