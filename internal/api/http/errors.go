package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/view"
)

type errorBody struct {
	Status     int    `json:"status"`
	StatusText string `json:"-"`
	Message    string `json:"error"`
}

// fail is the generic error handler: NotFound -> 404, anything else -> 500.
// Server errors are logged and flashed on the request session with flashPrefix.
func (h *Quizzes) fail(w http.ResponseWriter, r *http.Request, err error, flashPrefix string) {
	status := http.StatusInternalServerError
	msg := "something went wrong"
	if errors.Is(err, quiz.ErrNotFound) {
		status = http.StatusNotFound
		msg = err.Error()
	} else {
		h.Log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		h.flash(r, "error", flashPrefix+err.Error())
	}
	h.render(w, r, status, view.PageError, http.StatusText(status), errorBody{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    msg,
	})
}
