package http

import (
	"net/http"

	"canvas-quiz-service/internal/metrics"
)

// RouterOptions wires the handlers into one mux. MediaDir, when set, serves locally stored blobs
// under /media/.
type RouterOptions struct {
	WS       *WSHandler
	Quizzes  *QuizHandler
	MediaDir string
}

func NewRouter(opts RouterOptions) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.Handle(pattern, metrics.Middleware(endpoint, h))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())
	handle("GET /ws", "/ws", opts.WS.ServeWS)
	handle("GET /quizzes/{id}", "/quizzes/{id}", opts.Quizzes.GetQuiz)
	handle("POST /quizzes", "/quizzes", opts.Quizzes.PublishQuiz)
	handle("GET /sessions/{id}/export", "/sessions/{id}/export", opts.Quizzes.ExportSession)
	handle("POST /sessions/{id}/import", "/sessions/{id}/import", opts.Quizzes.ImportSession)
	handle("GET /sessions/{id}/summary", "/sessions/{id}/summary", opts.Quizzes.SessionSummary)
	handle("POST /media", "/media", opts.Quizzes.UploadMedia)
	if opts.MediaDir != "" {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(opts.MediaDir))))
	}
	return mux
}
