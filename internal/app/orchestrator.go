package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"canvas-quiz-service/internal/domain"
	"canvas-quiz-service/internal/metrics"
	"canvas-quiz-service/internal/schedule"
	"canvas-quiz-service/internal/scoring"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultAutoAdvanceDelay is the pause between completing a page and moving on.
const DefaultAutoAdvanceDelay = 1500 * time.Millisecond

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Scheduler        schedule.Scheduler
	AutoAdvanceDelay time.Duration
	// GradeSpatialWidgets makes jigsaw and map-quiz elements report scores and completion.
	GradeSpatialWidgets bool
	// Rand drives option shuffling and jigsaw scrambling. Nil keeps authored order.
	Rand   *rand.Rand
	NewID  func() string
	Logger *zap.Logger
}

// Orchestrator owns the pages of one quiz runtime and drives the authoring/preview lifecycle on top
// of a Session.
type Orchestrator struct {
	id           string
	session      *Session
	sched        schedule.Scheduler
	delay        time.Duration
	gradeSpatial bool
	rng          *rand.Rand
	newID        func() string
	log          *zap.Logger

	mu          sync.Mutex
	quizID      string
	title       string
	quizType    domain.QuizType
	pages       []domain.Page
	current     int
	mode        domain.Mode
	grids       map[string]*scoring.GridBoard
	jigsaws     map[string]*scoring.JigsawBoard
	maps        map[string]*scoring.MapBoard
	advanceGen  uint64
	stopAdvance schedule.Cancel
	closed      bool
	subscribers map[chan domain.Navigation]struct{}
}

// NewOrchestrator starts in authoring mode on the first page of def.
func NewOrchestrator(id string, def domain.QuizDefinition, session *Session, opts OrchestratorOptions) *Orchestrator {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewReal()
	}
	if opts.AutoAdvanceDelay <= 0 {
		opts.AutoAdvanceDelay = DefaultAutoAdvanceDelay
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	o := &Orchestrator{
		id:           id,
		session:      session,
		sched:        opts.Scheduler,
		delay:        opts.AutoAdvanceDelay,
		gradeSpatial: opts.GradeSpatialWidgets,
		rng:          opts.Rand,
		newID:        opts.NewID,
		log:          opts.Logger.With(zap.String("session", id)),
		mode:         domain.ModeAuthoring,
		subscribers:  make(map[chan domain.Navigation]struct{}),
	}
	o.applyDefinitionLocked(def)
	return o
}

// ID returns the runtime's session id.
func (o *Orchestrator) ID() string { return o.id }

// Session exposes the state store for timer, persistence and summary operations.
func (o *Orchestrator) Session() *Session { return o.session }

// Mode returns the lifecycle state.
func (o *Orchestrator) Mode() domain.Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// CurrentPage returns the index of the page on screen.
func (o *Orchestrator) CurrentPage() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Pages returns a copy of the page list.
func (o *Orchestrator) Pages() []domain.Page {
	o.mu.Lock()
	defer o.mu.Unlock()
	return copyPages(o.pages)
}

// Element looks up an element on any page.
func (o *Orchestrator) Element(elementID string) (domain.Element, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pi, ei, ok := o.findLocked(elementID)
	if !ok {
		return domain.Element{}, false
	}
	return o.pages[pi].Elements[ei], true
}

// Definition exports the quiz.
func (o *Orchestrator) Definition() domain.QuizDefinition {
	o.mu.Lock()
	defer o.mu.Unlock()
	return domain.QuizDefinition{
		Version:  domain.DefinitionVersion,
		ID:       o.quizID,
		Title:    o.title,
		QuizType: o.quizType,
		Pages:    copyPages(o.pages),
	}
}

// LoadDefinition replaces every page with an imported definition.
func (o *Orchestrator) LoadDefinition(def domain.QuizDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != domain.ModeAuthoring {
		return domain.ErrNotAuthoring
	}
	o.applyDefinitionLocked(def)
	o.broadcastLocked()
	return nil
}

func (o *Orchestrator) applyDefinitionLocked(def domain.QuizDefinition) {
	o.quizID = def.ID
	o.title = def.Title
	o.quizType = def.QuizType
	if o.quizType == "" {
		o.quizType = domain.QuizClassic
	}
	o.pages = copyPages(def.Pages)
	if len(o.pages) == 0 {
		o.pages = []domain.Page{{ID: o.newID(), Elements: []domain.Element{}}}
	}
	o.current = 0
}

// AddPage appends an empty page.
func (o *Orchestrator) AddPage(title string) (domain.Page, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != domain.ModeAuthoring {
		return domain.Page{}, domain.ErrNotAuthoring
	}
	page := domain.Page{ID: o.newID(), Title: title, Elements: []domain.Element{}}
	o.pages = append(o.pages, page)
	o.broadcastLocked()
	return page, nil
}

// RemovePage deletes a page and its elements. Removing the only page leaves an empty one.
func (o *Orchestrator) RemovePage(index int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != domain.ModeAuthoring {
		return domain.ErrNotAuthoring
	}
	if index < 0 || index >= len(o.pages) {
		return domain.ErrPageNotFound
	}
	o.pages = append(o.pages[:index], o.pages[index+1:]...)
	if len(o.pages) == 0 {
		o.pages = []domain.Page{{ID: o.newID(), Elements: []domain.Element{}}}
	}
	if o.current >= len(o.pages) {
		o.current = len(o.pages) - 1
	}
	o.broadcastLocked()
	return nil
}

// AddElement drops a new element of type t on a page with default geometry and content.
func (o *Orchestrator) AddElement(pageIndex int, t domain.ElementType, x, y float64) (domain.Element, error) {
	content, err := domain.DefaultContent(t)
	if err != nil {
		return domain.Element{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != domain.ModeAuthoring {
		return domain.Element{}, domain.ErrNotAuthoring
	}
	if pageIndex < 0 || pageIndex >= len(o.pages) {
		return domain.Element{}, domain.ErrPageNotFound
	}
	el := domain.NewElement(o.newID(), domain.DefaultGeometry(t, x, y), content)
	o.pages[pageIndex].Elements = append(o.pages[pageIndex].Elements, el)
	return el, nil
}

// UpdateElementContent replaces an element's content. The content must be of the element's type.
func (o *Orchestrator) UpdateElementContent(elementID string, content domain.Content) error {
	return o.editElement(elementID, func(el *domain.Element) error {
		if content == nil || content.ElementType() != el.Type {
			return domain.ErrContentMismatch
		}
		if err := domain.CheckContent(content); err != nil {
			return err
		}
		el.Content = content
		return nil
	})
}

// UpdateElementStyles merges patch into the element's styles.
func (o *Orchestrator) UpdateElementStyles(elementID string, patch domain.Styles) error {
	return o.editElement(elementID, func(el *domain.Element) error {
		el.Styles = el.Styles.Merge(patch)
		return nil
	})
}

// MoveElement sets an element's position.
func (o *Orchestrator) MoveElement(elementID string, x, y float64) error {
	return o.editElement(elementID, func(el *domain.Element) error {
		el.Geometry.X, el.Geometry.Y = x, y
		return nil
	})
}

// ResizeElement sets an element's size, clamped to at least 1x1.
func (o *Orchestrator) ResizeElement(elementID string, width, height float64) error {
	return o.editElement(elementID, func(el *domain.Element) error {
		el.Geometry.Width, el.Geometry.Height = width, height
		el.Geometry = el.Geometry.Clamped()
		return nil
	})
}

// DeleteElement removes an element from its page.
func (o *Orchestrator) DeleteElement(elementID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != domain.ModeAuthoring {
		return domain.ErrNotAuthoring
	}
	pi, ei, ok := o.findLocked(elementID)
	if !ok {
		return domain.ErrElementNotFound
	}
	els := o.pages[pi].Elements
	o.pages[pi].Elements = append(els[:ei:ei], els[ei+1:]...)
	return nil
}

func (o *Orchestrator) editElement(elementID string, edit func(*domain.Element) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != domain.ModeAuthoring {
		return domain.ErrNotAuthoring
	}
	pi, ei, ok := o.findLocked(elementID)
	if !ok {
		return domain.ErrElementNotFound
	}
	el := o.pages[pi].Elements[ei]
	if err := edit(&el); err != nil {
		return err
	}
	o.pages[pi].Elements[ei] = el
	return nil
}

// GoToPage moves to a page. Out-of-range indexes are ignored and report false.
func (o *Orchestrator) GoToPage(index int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.goToLocked(index)
}

// NextPage moves forward one page if there is one.
func (o *Orchestrator) NextPage() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.goToLocked(o.current + 1)
}

// PrevPage moves back one page if there is one.
func (o *Orchestrator) PrevPage() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.goToLocked(o.current - 1)
}

func (o *Orchestrator) goToLocked(index int) bool {
	if index < 0 || index >= len(o.pages) || o.closed {
		return false
	}
	o.cancelAdvanceLocked()
	o.current = index
	o.broadcastLocked()
	o.checkAutoAdvanceLocked()
	return true
}

// EnterPreview arms the session store and makes widgets interactive, starting at the first page.
func (o *Orchestrator) EnterPreview() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.mode {
	case domain.ModePreviewing:
		return nil
	case domain.ModeSummarized:
		return domain.ErrNotAuthoring
	}
	o.startRunLocked()
	return nil
}

// Restart clears the session and begins a fresh run.
func (o *Orchestrator) Restart() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode == domain.ModeAuthoring {
		return domain.ErrNotPreviewing
	}
	o.session.ResetQuiz()
	o.startRunLocked()
	return nil
}

func (o *Orchestrator) startRunLocked() {
	o.cancelAdvanceLocked()
	o.resetBoardsLocked()
	o.current = 0
	total := 0
	for _, p := range o.pages {
		total += p.ScorableCount()
	}
	o.session.SetTotalElements(total)
	o.session.StartQuiz()
	o.mode = domain.ModePreviewing
	o.broadcastLocked()
	o.checkAutoAdvanceLocked()
}

// EndPreview is the manual "End Quiz": the session is ended and the runtime returns to authoring.
func (o *Orchestrator) EndPreview() domain.CompletionSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelAdvanceLocked()
	if o.mode == domain.ModePreviewing {
		o.session.EndQuiz()
	}
	o.mode = domain.ModeAuthoring
	o.broadcastLocked()
	return o.session.CompletionSummary()
}

// UpdateProgress marks a scorable element's completion and re-evaluates auto-advance. Only elements
// on the quiz's pages count, so completion never outgrows the scorable total.
func (o *Orchestrator) UpdateProgress(elementID string, completed bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != domain.ModePreviewing {
		return domain.ErrNotPreviewing
	}
	pi, ei, ok := o.findLocked(elementID)
	if !ok || !domain.IsScorable(o.pages[pi].Elements[ei].Type) {
		return domain.ErrElementNotFound
	}
	o.session.UpdateProgress(elementID, completed)
	o.checkAutoAdvanceLocked()
	return nil
}

// LoadState restores the saved quiz state and, in preview, re-checks whether the current page is
// already complete.
func (o *Orchestrator) LoadState(ctx context.Context) bool {
	if !o.session.LoadQuizState(ctx) {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checkAutoAdvanceLocked()
	return true
}

// MountOptions returns a multiple-choice element's options in display order for one mount.
func (o *Orchestrator) MountOptions(elementID string) ([]domain.Option, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pi, ei, ok := o.findLocked(elementID)
	if !ok {
		return nil, domain.ErrElementNotFound
	}
	content, ok := o.pages[pi].Elements[ei].Content.(domain.MultipleChoiceContent)
	if !ok {
		return nil, domain.ErrInteractionMismatch
	}
	var rng *rand.Rand
	if o.mode == domain.ModePreviewing {
		rng = o.rng
	}
	return scoring.ShuffledOptions(content, rng), nil
}

// Interact evaluates a quiz taker's action and reports graded results to the session.
func (o *Orchestrator) Interact(elementID string, in Interaction) (Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != domain.ModePreviewing {
		return Outcome{}, domain.ErrNotPreviewing
	}
	pi, ei, ok := o.findLocked(elementID)
	if !ok {
		return Outcome{}, domain.ErrElementNotFound
	}
	el := o.pages[pi].Elements[ei]

	out, err := o.evaluateLocked(el, in)
	if err != nil {
		return Outcome{}, err
	}
	if out.Changed {
		scoring.Report(o.session, out.Result)
		outcome := "incorrect"
		if out.Correct {
			outcome = "correct"
		}
		metrics.Interactions.WithLabelValues(string(el.Type), outcome).Inc()
		o.checkAutoAdvanceLocked()
	}
	return out, nil
}

func (o *Orchestrator) evaluateLocked(el domain.Element, in Interaction) (Outcome, error) {
	switch content := el.Content.(type) {
	case domain.MultipleChoiceContent:
		if sel, ok := in.(SelectOptions); ok {
			return Outcome{Result: scoring.MultipleChoice(el.ID, content, sel.OptionIDs), Changed: true}, nil
		}
	case domain.CrosswordContent:
		if fill, ok := in.(FillCrossword); ok {
			res := scoring.Crossword(el.ID, content, fill.Entries)
			return Outcome{Result: res.Result, Changed: true, Clues: res.Clues}, nil
		}
	case domain.GridPuzzleContent:
		if rev, ok := in.(RevealCell); ok {
			board := o.grids[el.ID]
			if board == nil {
				board = scoring.NewGridBoard(el.ID, content)
				o.grids[el.ID] = board
			}
			res, changed := board.Reveal(rev.Index, rev.Trigger)
			return Outcome{Result: res, Changed: changed}, nil
		}
	case domain.JigsawContent:
		board := o.jigsaws[el.ID]
		if board == nil {
			board = scoring.NewJigsawBoard(el.ID, content, o.rng, o.gradeSpatial)
			o.jigsaws[el.ID] = board
		}
		var (
			res     scoring.Result
			changed bool
		)
		switch act := in.(type) {
		case PlacePiece:
			res, changed = board.Place(act.PieceID, act.Index)
		case RotatePiece:
			res, changed = board.Rotate(act.PieceID)
		default:
			return Outcome{}, domain.ErrInteractionMismatch
		}
		return Outcome{Result: res, Changed: changed, Pieces: board.Pieces()}, nil
	case domain.MapQuizContent:
		board := o.maps[el.ID]
		if board == nil {
			board = scoring.NewMapBoard(el.ID, content, o.gradeSpatial)
			o.maps[el.ID] = board
		}
		var (
			res     scoring.Result
			changed bool
		)
		switch act := in.(type) {
		case PlaceMarker:
			res, changed = board.PlaceMarker(act.MarkerID)
		case SelectRegion:
			res, changed = board.SelectRegion(act.RegionID)
		default:
			return Outcome{}, domain.ErrInteractionMismatch
		}
		markers, regions := board.Correctness()
		return Outcome{Result: res, Changed: changed, Markers: markers, Regions: regions}, nil
	}
	return Outcome{}, domain.ErrInteractionMismatch
}

// resetBoardsLocked drops widget runtime state so it is rebuilt from canonical content.
func (o *Orchestrator) resetBoardsLocked() {
	o.grids = make(map[string]*scoring.GridBoard)
	o.jigsaws = make(map[string]*scoring.JigsawBoard)
	o.maps = make(map[string]*scoring.MapBoard)
}

func (o *Orchestrator) currentPageCompleteLocked() bool {
	if o.current < 0 || o.current >= len(o.pages) {
		return false
	}
	for _, el := range o.pages[o.current].Elements {
		if !domain.IsScorable(el.Type) {
			continue
		}
		p, ok := o.session.Progress(el.ID)
		if !ok || !p.Completed {
			return false
		}
	}
	return true
}

// checkAutoAdvanceLocked schedules a page transition once every scorable element on the current
// page is completed. Pages without scorable elements count as complete.
func (o *Orchestrator) checkAutoAdvanceLocked() {
	if o.mode != domain.ModePreviewing || o.closed || o.stopAdvance != nil {
		return
	}
	if !o.currentPageCompleteLocked() {
		return
	}
	o.advanceGen++
	gen := o.advanceGen
	o.stopAdvance = o.sched.After(o.delay, func() { o.autoAdvance(gen) })
}

func (o *Orchestrator) autoAdvance(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.advanceGen || o.closed || o.mode != domain.ModePreviewing {
		return
	}
	o.stopAdvance = nil
	if !o.currentPageCompleteLocked() {
		return
	}
	if o.current+1 < len(o.pages) {
		o.current++
		metrics.PageAdvances.WithLabelValues("page").Inc()
		o.log.Debug("auto-advanced", zap.Int("page", o.current))
		o.broadcastLocked()
		o.checkAutoAdvanceLocked()
		return
	}
	o.session.EndQuiz()
	o.mode = domain.ModeSummarized
	metrics.PageAdvances.WithLabelValues("end").Inc()
	o.log.Info("quiz completed", zap.Int("pages", len(o.pages)))
	o.broadcastLocked()
}

func (o *Orchestrator) cancelAdvanceLocked() {
	if o.stopAdvance != nil {
		o.stopAdvance()
		o.stopAdvance = nil
	}
	o.advanceGen++
}

func (o *Orchestrator) findLocked(elementID string) (int, int, bool) {
	for pi := range o.pages {
		for ei := range o.pages[pi].Elements {
			if o.pages[pi].Elements[ei].ID == elementID {
				return pi, ei, true
			}
		}
	}
	return 0, 0, false
}

// Navigation returns the current page-level view.
func (o *Orchestrator) Navigation() domain.Navigation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.navigationLocked()
}

func (o *Orchestrator) navigationLocked() domain.Navigation {
	return domain.Navigation{
		SessionID: o.id,
		Mode:      o.mode,
		PageIndex: o.current,
		PageCount: len(o.pages),
		UpdatedAt: o.sched.Now(),
	}
}

// Subscribe returns a channel of navigation updates, starting with the current one. The caller
// must invoke the returned cancel function to avoid leaks.
func (o *Orchestrator) Subscribe() (<-chan domain.Navigation, func()) {
	ch := make(chan domain.Navigation, 8)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	ch <- o.navigationLocked()
	o.subscribers[ch] = struct{}{}
	o.mu.Unlock()

	cancel := func() {
		o.mu.Lock()
		if _, ok := o.subscribers[ch]; ok {
			delete(o.subscribers, ch)
			close(ch)
		}
		o.mu.Unlock()
	}
	return ch, cancel
}

func (o *Orchestrator) broadcastLocked() {
	if len(o.subscribers) == 0 {
		return
	}
	nav := o.navigationLocked()
	for ch := range o.subscribers {
		select {
		case ch <- nav:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- nav
		}
	}
}

// Close cancels pending transitions, releases subscribers and tears down the session.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.cancelAdvanceLocked()
	for ch := range o.subscribers {
		delete(o.subscribers, ch)
		close(ch)
	}
	o.mu.Unlock()
	o.session.Close()
}

func copyPages(pages []domain.Page) []domain.Page {
	out := make([]domain.Page, len(pages))
	for i, p := range pages {
		els := make([]domain.Element, len(p.Elements))
		for j, el := range p.Elements {
			el.Styles = el.Styles.Merge(nil)
			els[j] = el
		}
		out[i] = domain.Page{ID: p.ID, Title: p.Title, Elements: els}
	}
	return out
}
