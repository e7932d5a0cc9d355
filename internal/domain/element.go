package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ElementType identifies the kind of content an element carries.
type ElementType string

const (
	ElementText           ElementType = "text"
	ElementImage          ElementType = "image"
	ElementVideo          ElementType = "video"
	ElementAudio          ElementType = "audio"
	ElementMultipleChoice ElementType = "multiple-choice"
	ElementCrossword      ElementType = "crossword"
	ElementGridPuzzle     ElementType = "grid-puzzle"
	ElementMapQuiz        ElementType = "map-quiz"
	ElementJigsaw         ElementType = "jigsaw"
	ElementTimer          ElementType = "timer"
	ElementContainer      ElementType = "container"
	ElementColumns        ElementType = "columns"
	ElementRows           ElementType = "rows"
)

// ElementTypes lists every supported element type in toolbar order.
var ElementTypes = []ElementType{
	ElementText, ElementImage, ElementVideo, ElementAudio,
	ElementMultipleChoice, ElementCrossword, ElementGridPuzzle, ElementMapQuiz, ElementJigsaw,
	ElementTimer, ElementContainer, ElementColumns, ElementRows,
}

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	_, ok := contentDecoders[t]
	return ok
}

// IsScorable reports whether elements of this type take part in scoring and completion.
func IsScorable(t ElementType) bool {
	switch t {
	case ElementMultipleChoice, ElementCrossword, ElementGridPuzzle, ElementMapQuiz, ElementJigsaw:
		return true
	}
	return false
}

// Content is the type-specific payload of an element. The set of implementations is closed.
type Content interface {
	ElementType() ElementType
	sealed()
}

// Geometry positions an element on the canvas.
type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamped returns g with width and height raised to at least 1.
func (g Geometry) Clamped() Geometry {
	if g.Width < 1 {
		g.Width = 1
	}
	if g.Height < 1 {
		g.Height = 1
	}
	return g
}

// Styles holds presentation attributes (string or number values).
type Styles map[string]any

// Merge returns a copy of s with every key of patch applied on top.
func (s Styles) Merge(patch Styles) Styles {
	out := make(Styles, len(s)+len(patch))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Element is a positioned, typed unit of quiz content on a page.
type Element struct {
	ID       string
	Type     ElementType
	Geometry Geometry
	Content  Content
	Styles   Styles
}

// NewElement builds an element whose type is taken from its content.
func NewElement(id string, geometry Geometry, content Content) Element {
	return Element{
		ID:       id,
		Type:     content.ElementType(),
		Geometry: geometry.Clamped(),
		Content:  content,
		Styles:   Styles{},
	}
}

type elementJSON struct {
	ID      string          `json:"id"`
	Type    ElementType     `json:"type"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Content json.RawMessage `json:"content"`
	Styles  Styles          `json:"styles,omitempty"`
}

// MarshalJSON writes the element in its flat wire form.
func (e Element) MarshalJSON() ([]byte, error) {
	if e.Content == nil {
		return nil, fmt.Errorf("element %s: %w", e.ID, ErrContentMismatch)
	}
	if e.Content.ElementType() != e.Type {
		return nil, fmt.Errorf("element %s: type %s carries %s content: %w", e.ID, e.Type, e.Content.ElementType(), ErrContentMismatch)
	}
	content, err := json.Marshal(e.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(elementJSON{
		ID:      e.ID,
		Type:    e.Type,
		X:       e.Geometry.X,
		Y:       e.Geometry.Y,
		Width:   e.Geometry.Width,
		Height:  e.Geometry.Height,
		Content: content,
		Styles:  e.Styles,
	})
}

// UnmarshalJSON decodes content according to the element type.
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw elementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := DecodeContent(raw.Type, raw.Content)
	if err != nil {
		return fmt.Errorf("element %s: %w", raw.ID, err)
	}
	styles := raw.Styles
	if styles == nil {
		styles = Styles{}
	}
	*e = Element{
		ID:   raw.ID,
		Type: raw.Type,
		Geometry: Geometry{
			X: raw.X, Y: raw.Y, Width: raw.Width, Height: raw.Height,
		},
		Content: content,
		Styles:  styles,
	}
	return nil
}

// CheckContent applies the per-type consistency rules that a JSON shape cannot express.
func CheckContent(c Content) error {
	if cw, ok := c.(CrosswordContent); ok {
		return cw.Check()
	}
	return nil
}

// DecodeContent parses a content object for the given element type. Unknown fields are rejected so a
// payload shaped for another element type does not slip through.
func DecodeContent(t ElementType, data json.RawMessage) (Content, error) {
	decode, ok := contentDecoders[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownElementType, t)
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, fmt.Errorf("%s: missing content: %w", t, ErrContentMismatch)
	}
	content, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", t, err, ErrContentMismatch)
	}
	return content, nil
}

func strictDecode[T Content](data []byte) (Content, error) {
	var c T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return c, nil
}

var contentDecoders = map[ElementType]func([]byte) (Content, error){
	ElementText:           strictDecode[TextContent],
	ElementImage:          strictDecode[ImageContent],
	ElementVideo:          strictDecode[VideoContent],
	ElementAudio:          strictDecode[AudioContent],
	ElementMultipleChoice: strictDecode[MultipleChoiceContent],
	ElementCrossword:      strictDecode[CrosswordContent],
	ElementGridPuzzle:     strictDecode[GridPuzzleContent],
	ElementMapQuiz:        strictDecode[MapQuizContent],
	ElementJigsaw:         strictDecode[JigsawContent],
	ElementTimer:          strictDecode[TimerContent],
	ElementContainer:      strictDecode[ContainerContent],
	ElementColumns:        strictDecode[ColumnsContent],
	ElementRows:           strictDecode[RowsContent],
}
