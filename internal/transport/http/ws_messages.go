package http

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"canvas-quiz-service/internal/app"
	"canvas-quiz-service/internal/domain"
	"canvas-quiz-service/internal/scoring"
)

type navigatePayload struct {
	PageIndex *int   `json:"pageIndex,omitempty"`
	Direction string `json:"direction,omitempty"`
}

type interactPayload struct {
	ElementID string                   `json:"elementId"`
	Action    string                   `json:"action"`
	OptionIDs []string                 `json:"optionIds,omitempty"`
	Entries   []scoring.CrosswordEntry `json:"entries,omitempty"`
	Index     int                      `json:"index"`
	Trigger   domain.RevealStyle       `json:"trigger,omitempty"`
	PieceID   string                   `json:"pieceId,omitempty"`
	MarkerID  string                   `json:"markerId,omitempty"`
	RegionID  string                   `json:"regionId,omitempty"`
}

type progressPayload struct {
	ElementID string `json:"elementId"`
	Completed bool   `json:"completed"`
}

type pagePayload struct {
	PageIndex int    `json:"pageIndex"`
	Title     string `json:"title,omitempty"`
}

type addElementPayload struct {
	PageIndex int                `json:"pageIndex"`
	Type      domain.ElementType `json:"type"`
	X         float64            `json:"x"`
	Y         float64            `json:"y"`
}

type elementPayload struct {
	ElementID string          `json:"elementId"`
	Content   json.RawMessage `json:"content,omitempty"`
	Styles    domain.Styles   `json:"styles,omitempty"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
}

type loadedPayload struct {
	Restored bool `json:"restored"`
}

type savedPayload struct {
	SavedAt *time.Time `json:"savedAt"`
}

func (p interactPayload) interaction() (app.Interaction, error) {
	switch p.Action {
	case "select":
		return app.SelectOptions{OptionIDs: p.OptionIDs}, nil
	case "crossword":
		return app.FillCrossword{Entries: p.Entries}, nil
	case "reveal":
		return app.RevealCell{Index: p.Index, Trigger: p.Trigger}, nil
	case "place":
		return app.PlacePiece{PieceID: p.PieceID, Index: p.Index}, nil
	case "rotate":
		return app.RotatePiece{PieceID: p.PieceID}, nil
	case "marker":
		return app.PlaceMarker{MarkerID: p.MarkerID}, nil
	case "region":
		return app.SelectRegion{RegionID: p.RegionID}, nil
	}
	return nil, fmt.Errorf("%w: unknown action %q", errBadMessage, p.Action)
}

func decodePayload[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", errBadMessage, err)
	}
	return v, nil
}

func reply(typ string, payload any) outboundMessage[any] {
	return outboundMessage[any]{Type: typ, Payload: payload}
}

// dispatch runs one client message against the runtime. State and navigation changes reach the
// client through the subscriptions; the returned message carries only the direct answer.
func (h *WSHandler) dispatch(ctx context.Context, o *app.Orchestrator, msg inboundMessage) (outboundMessage[any], error) {
	switch msg.Type {
	case "preview":
		return outboundMessage[any]{}, o.EnterPreview()
	case "end":
		return reply("summary", o.EndPreview()), nil
	case "restart":
		return outboundMessage[any]{}, o.Restart()
	case "pause":
		o.Session().PauseQuiz()
		return outboundMessage[any]{}, nil
	case "resume":
		o.Session().ResumeQuiz()
		return outboundMessage[any]{}, nil
	case "summary":
		return reply("summary", o.Session().CompletionSummary()), nil
	case "save":
		if err := o.Session().SaveQuizState(ctx); err != nil {
			return outboundMessage[any]{}, err
		}
		return reply("saved", savedPayload{SavedAt: o.Session().Snapshot().LastSavedState}), nil
	case "load":
		return reply("loaded", loadedPayload{Restored: o.LoadState(ctx)}), nil

	case "navigate":
		p, err := decodePayload[navigatePayload](msg.Payload)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		switch {
		case p.PageIndex != nil:
			o.GoToPage(*p.PageIndex)
		case p.Direction == "next":
			o.NextPage()
		case p.Direction == "prev":
			o.PrevPage()
		default:
			return outboundMessage[any]{}, fmt.Errorf("%w: navigate needs pageIndex or direction", errBadMessage)
		}
		return outboundMessage[any]{}, nil

	case "interact":
		p, err := decodePayload[interactPayload](msg.Payload)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		in, err := p.interaction()
		if err != nil {
			return outboundMessage[any]{}, err
		}
		out, err := o.Interact(p.ElementID, in)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		return reply("result", out), nil
	case "progress":
		p, err := decodePayload[progressPayload](msg.Payload)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		if err := o.UpdateProgress(p.ElementID, p.Completed); err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{}, nil
	case "mount":
		p, err := decodePayload[elementPayload](msg.Payload)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		options, err := o.MountOptions(p.ElementID)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		return reply("options", map[string]any{"elementId": p.ElementID, "options": options}), nil
	}
	return h.dispatchAuthoring(ctx, o, msg)
}

func (h *WSHandler) dispatchAuthoring(ctx context.Context, o *app.Orchestrator, msg inboundMessage) (outboundMessage[any], error) {
	var err error
	switch msg.Type {
	case "addPage":
		var p pagePayload
		if p, err = decodePayload[pagePayload](msg.Payload); err == nil {
			_, err = o.AddPage(p.Title)
		}
	case "removePage":
		var p pagePayload
		if p, err = decodePayload[pagePayload](msg.Payload); err == nil {
			err = o.RemovePage(p.PageIndex)
		}
	case "addElement":
		p, err := decodePayload[addElementPayload](msg.Payload)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		el, err := o.AddElement(p.PageIndex, p.Type, p.X, p.Y)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		return reply("element", el), nil
	case "updateContent":
		var p elementPayload
		if p, err = decodePayload[elementPayload](msg.Payload); err == nil {
			err = updateContent(o, p)
		}
	case "updateStyles":
		var p elementPayload
		if p, err = decodePayload[elementPayload](msg.Payload); err == nil {
			err = o.UpdateElementStyles(p.ElementID, p.Styles)
		}
	case "move":
		var p elementPayload
		if p, err = decodePayload[elementPayload](msg.Payload); err == nil {
			err = o.MoveElement(p.ElementID, p.X, p.Y)
		}
	case "resize":
		var p elementPayload
		if p, err = decodePayload[elementPayload](msg.Payload); err == nil {
			err = o.ResizeElement(p.ElementID, p.Width, p.Height)
		}
	case "deleteElement":
		var p elementPayload
		if p, err = decodePayload[elementPayload](msg.Payload); err == nil {
			err = o.DeleteElement(p.ElementID)
		}
	case "import":
		err = h.service.ImportQuiz(ctx, o.ID(), msg.Payload)
	case "export":
	case "publish":
		if _, err = h.service.PublishSession(ctx, o.ID()); err == nil {
			return reply("published", map[string]string{"quizId": o.Definition().ID}), nil
		}
	default:
		return outboundMessage[any]{}, fmt.Errorf("%w: unsupported message type %q", errBadMessage, msg.Type)
	}
	if err != nil {
		return outboundMessage[any]{}, err
	}
	return reply("definition", o.Definition()), nil
}

func updateContent(o *app.Orchestrator, p elementPayload) error {
	el, ok := o.Element(p.ElementID)
	if !ok {
		return domain.ErrElementNotFound
	}
	content, err := domain.DecodeContent(el.Type, p.Content)
	if err != nil {
		return err
	}
	return o.UpdateElementContent(p.ElementID, content)
}
