package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-quiz/internal/eventlog"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/view"
)

// EventLister reads the change log back.
type EventLister interface {
	List(ctx context.Context, after int64, limit int) ([]eventlog.Event, error)
}

type eventsBody struct {
	Events []eventlog.Event `json:"events"`
	Next   int64            `json:"next"`
}

// GET /events?after=&limit=   (JSON only)
func ListEventsHandler(events EventLister, v *view.Renderer, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, err := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		if err != nil || after < 0 {
			after = 0
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		if limit > 500 {
			limit = 500
		}
		rows, err := events.List(r.Context(), after, limit)
		if err != nil {
			log.Error("list events failed", "after", after, "error", err)
			_ = v.JSON(w, http.StatusInternalServerError, errorBody{Status: http.StatusInternalServerError, Message: "something went wrong"})
			return
		}
		next := after
		if len(rows) > 0 {
			next = rows[len(rows)-1].Offset
		}
		if rows == nil {
			rows = []eventlog.Event{}
		}
		_ = v.JSON(w, http.StatusOK, eventsBody{Events: rows, Next: next})
	}
}
