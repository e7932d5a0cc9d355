package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"canvas-quiz-service/internal/app"
	"canvas-quiz-service/internal/domain"
	"canvas-quiz-service/internal/media"
	"go.uber.org/zap"
)

const defaultMaxUpload = 50 << 20

// QuizHandler serves quiz definitions, session exports and media uploads over plain HTTP.
type QuizHandler struct {
	service   *app.QuizService
	ingestor  *media.Ingestor
	maxUpload int64
	log       *zap.Logger
}

func NewQuizHandler(service *app.QuizService, ingestor *media.Ingestor, maxUpload int64, log *zap.Logger) *QuizHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizHandler{service: service, ingestor: ingestor, maxUpload: maxUpload, log: log}
}

func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	def, err := h.service.GetQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (h *QuizHandler) PublishQuiz(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	def, err := domain.DecodeDefinition(body)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.PublishQuiz(r.Context(), def); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": def.ID})
}

func (h *QuizHandler) ExportSession(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="quiz.json"`)
	_, _ = w.Write(data)
}

func (h *QuizHandler) ImportSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err := h.service.ImportQuiz(r.Context(), r.PathValue("id"), body); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuizHandler) SessionSummary(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o.Session().CompletionSummary())
}

// UploadMedia accepts a multipart "file" field and returns the stored asset.
func (h *QuizHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if h.ingestor == nil {
		http.Error(w, "media storage not configured", http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	asset, err := h.ingestor.Ingest(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		if !errors.Is(err, media.ErrUnsupportedMedia) {
			h.log.Error("media upload failed", zap.Error(err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDefinition),
		errors.Is(err, domain.ErrUnsupportedVersion),
		errors.Is(err, domain.ErrContentMismatch),
		errors.Is(err, domain.ErrInvalidContent),
		errors.Is(err, domain.ErrUnknownElementType):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthoring):
		status = http.StatusConflict
	case errors.Is(err, media.ErrUnsupportedMedia):
		status = http.StatusUnsupportedMediaType
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
