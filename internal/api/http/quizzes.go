package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/eventlog"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/paginate"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/randomplay"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/view"
)

// Quizzes holds the quiz routes' collaborators.
type Quizzes struct {
	Store    quiz.Store
	Random   *randomplay.Service
	View     *view.Renderer
	Events   eventlog.Recorder // optional
	Log      *logger.Logger
	PageSize int
}

func MountQuizzes(r chi.Router, h *Quizzes) {
	r.With(rbac.Require("quiz:view")).Get("/", h.Index)
	r.With(rbac.Require("quiz:create")).Get("/new", h.New)
	r.With(rbac.Require("quiz:create")).Post("/", h.Create)
	r.With(rbac.Require("quiz:play")).Get("/randomplay", h.RandomPlay)
	r.With(rbac.Require("quiz:play")).Get("/randomcheck", h.RandomCheck)

	r.Route("/{quizID}", func(qr chi.Router) {
		qr.Use(h.QuizCtx)
		qr.With(rbac.RequireAny("quiz:view", "quiz:edit")).Get("/", h.Show)
		qr.With(rbac.Require("quiz:edit")).Get("/edit", h.Edit)
		qr.With(rbac.Require("quiz:edit")).Put("/", h.Update)
		qr.With(rbac.Require("quiz:delete")).Delete("/", h.Destroy)
		qr.With(rbac.Require("quiz:play")).Get("/play", h.Play)
		qr.With(rbac.Require("quiz:play")).Get("/check", h.Check)
	})
}

/* ---------- response bodies (HTML templates and JSON share them) ---------- */

type questionView struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
}

type indexBody struct {
	Quizzes []quiz.Quiz    `json:"quizzes"`
	Search  string         `json:"search"`
	Pager   paginate.Pager `json:"pager"`
	CanEdit bool           `json:"-"`
}

type showBody struct {
	Quiz    quiz.Quiz `json:"quiz"`
	CanEdit bool      `json:"-"`
}

type formBody struct {
	Quiz   quiz.Quiz             `json:"quiz"`
	Errors quiz.ValidationErrors `json:"errors,omitempty"`
}

type playBody struct {
	Quiz   questionView `json:"quiz"`
	Answer string       `json:"answer"`
}

type checkBody struct {
	Quiz   questionView `json:"quiz"`
	Result bool         `json:"result"`
	Answer string       `json:"answer"`
}

type randomPlayBody struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Score    int    `json:"score"`
}

type randomDoneBody struct {
	Done  bool `json:"done"`
	Score int  `json:"score"`
}

/* ---------- autoload ---------- */

type ctxKey struct{}

// QuizCtx loads the quiz named by {quizID} or ends the request with 404.
func (h *Quizzes) QuizCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "quizID")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.fail(w, r, fmt.Errorf("no quiz with id=%s: %w", raw, quiz.ErrNotFound), "")
			return
		}
		q, err := h.Store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, quiz.ErrNotFound) {
				err = fmt.Errorf("no quiz with id=%d: %w", id, err)
			}
			h.fail(w, r, err, "Error loading quiz: ")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, q)))
	})
}

func quizFromContext(ctx context.Context) quiz.Quiz {
	q, _ := ctx.Value(ctxKey{}).(quiz.Quiz)
	return q
}

/* ---------- CRUD ---------- */

// GET /quizzes?search=&pageno=
func (h *Quizzes) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	search := r.URL.Query().Get("search")
	q := quiz.SearchQuery(search)

	total, err := h.Store.Count(ctx, q)
	if err != nil {
		h.fail(w, r, err, "Error listing quizzes: ")
		return
	}
	pager := paginate.New(total, h.pageSize(), parseIntDefault(r.URL.Query().Get("pageno"), 1), r.URL.RequestURI())
	q.Limit, q.Offset = pager.Limit(), pager.Offset()

	rows, err := h.Store.Find(ctx, q)
	if err != nil {
		h.fail(w, r, err, "Error listing quizzes: ")
		return
	}
	canEdit := rbac.Can(ctx, "quiz:edit")
	if !canEdit {
		for i := range rows {
			rows[i] = hideAnswer(rows[i])
		}
	}
	h.render(w, r, http.StatusOK, view.PageIndex, "Quizzes", indexBody{
		Quizzes: rows,
		Search:  search,
		Pager:   pager,
		CanEdit: canEdit,
	})
}

// GET /quizzes/{quizID}
func (h *Quizzes) Show(w http.ResponseWriter, r *http.Request) {
	q := quizFromContext(r.Context())
	canEdit := rbac.Can(r.Context(), "quiz:edit")
	if !canEdit {
		q = hideAnswer(q)
	}
	h.render(w, r, http.StatusOK, view.PageShow, "Quiz", showBody{Quiz: q, CanEdit: canEdit})
}

// GET /quizzes/new
func (h *Quizzes) New(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageNew, "New quiz", formBody{})
}

// POST /quizzes
func (h *Quizzes) Create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeQuiz(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	created, err := h.Store.Create(r.Context(), in)
	var verrs quiz.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		h.invalid(w, r, view.PageNew, "New quiz", in, verrs)
		return
	case err != nil:
		h.fail(w, r, err, "Error creating quiz: ")
		return
	}
	h.record(r, eventlog.TypeQuizCreated, created)
	h.done(w, r, http.StatusCreated, "Quiz created.", "/quizzes/"+strconv.FormatInt(created.ID, 10), created)
}

// GET /quizzes/{quizID}/edit
func (h *Quizzes) Edit(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageEdit, "Edit quiz", formBody{Quiz: quizFromContext(r.Context())})
}

// PUT /quizzes/{quizID}
func (h *Quizzes) Update(w http.ResponseWriter, r *http.Request) {
	in, err := decodeQuiz(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	q := quizFromContext(r.Context())
	q.Question, q.Answer = in.Question, in.Answer

	updated, err := h.Store.Update(r.Context(), q)
	var verrs quiz.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		h.invalid(w, r, view.PageEdit, "Edit quiz", q, verrs)
		return
	case err != nil:
		h.fail(w, r, err, "Error updating quiz: ")
		return
	}
	h.record(r, eventlog.TypeQuizUpdated, updated)
	h.done(w, r, http.StatusOK, "Quiz updated.", "/quizzes/"+strconv.FormatInt(updated.ID, 10), updated)
}

// DELETE /quizzes/{quizID}
func (h *Quizzes) Destroy(w http.ResponseWriter, r *http.Request) {
	q := quizFromContext(r.Context())
	if err := h.Store.Delete(r.Context(), q.ID); err != nil {
		h.fail(w, r, err, "Error deleting quiz: ")
		return
	}
	h.record(r, eventlog.TypeQuizDeleted, q)
	if view.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.flash(r, "success", "Quiz deleted.")
	http.Redirect(w, r, "/quizzes", http.StatusSeeOther)
}

/* ---------- direct play ---------- */

// GET /quizzes/{quizID}/play?answer=
func (h *Quizzes) Play(w http.ResponseWriter, r *http.Request) {
	q := quizFromContext(r.Context())
	h.render(w, r, http.StatusOK, view.PagePlay, "Play", playBody{
		Quiz:   questionView{ID: q.ID, Question: q.Question},
		Answer: r.URL.Query().Get("answer"),
	})
}

// GET /quizzes/{quizID}/check?answer=
func (h *Quizzes) Check(w http.ResponseWriter, r *http.Request) {
	q := quizFromContext(r.Context())
	answer := r.URL.Query().Get("answer")
	h.render(w, r, http.StatusOK, view.PageResult, "Result", checkBody{
		Quiz:   questionView{ID: q.ID, Question: q.Question},
		Result: grading.Matches(answer, q.Answer),
		Answer: answer,
	})
}

/* ---------- random play ---------- */

// GET /quizzes/randomplay
func (h *Quizzes) RandomPlay(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context()).RandomPlayState()
	p, err := h.Random.PresentNext(r.Context(), st)
	if err != nil {
		h.fail(w, r, err, "Error searching quizzes: ")
		return
	}
	if p.Done {
		h.render(w, r, http.StatusOK, view.PageRandomNoMore, "No more questions", randomDoneBody{Done: true, Score: p.Score})
		return
	}
	h.render(w, r, http.StatusOK, view.PageRandomPlay, "Random play", randomPlayBody{
		ID:       p.Quiz.ID,
		Question: p.Quiz.Question,
		Score:    p.Score,
	})
}

// GET /quizzes/randomcheck?answer=
func (h *Quizzes) RandomCheck(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context()).RandomPlayState()
	q, err := h.Random.Pending(r.Context(), st)
	switch {
	case errors.Is(err, randomplay.ErrNoPending):
		if view.WantsJSON(r) {
			h.render(w, r, http.StatusConflict, view.PageError, "", errorBody{
				Status:     http.StatusConflict,
				StatusText: http.StatusText(http.StatusConflict),
				Message:    err.Error(),
			})
			return
		}
		http.Redirect(w, r, "/quizzes/randomplay", http.StatusSeeOther)
		return
	case err != nil:
		h.fail(w, r, err, "Error checking answer: ")
		return
	}
	res := h.Random.SubmitAnswer(st, q, r.URL.Query().Get("answer"))
	h.render(w, r, http.StatusOK, view.PageRandomResult, "Result", res)
}

/* ---------- helpers ---------- */

// hideAnswer strips the answer for viewers who may only play.
func hideAnswer(q quiz.Quiz) quiz.Quiz {
	q.Answer = ""
	return q
}

func (h *Quizzes) pageSize() int {
	if h.PageSize <= 0 {
		return 10
	}
	return h.PageSize
}

func (h *Quizzes) render(w http.ResponseWriter, r *http.Request, status int, page, title string, body any) {
	if err := h.View.Render(w, r, status, page, title, body); err != nil {
		h.Log.Error("render failed", "page", page, "error", err)
	}
}

// invalid re-renders a form with its field messages.
func (h *Quizzes) invalid(w http.ResponseWriter, r *http.Request, page, title string, q quiz.Quiz, verrs quiz.ValidationErrors) {
	h.flash(r, "error", "Errors in the form:")
	for _, m := range verrs.Messages() {
		h.flash(r, "error", m)
	}
	h.render(w, r, http.StatusUnprocessableEntity, page, title, formBody{Quiz: q, Errors: verrs})
}

// done answers a successful write: a redirect with a flash for browsers, the
// stored quiz for API clients.
func (h *Quizzes) done(w http.ResponseWriter, r *http.Request, jsonStatus int, msg, location string, q quiz.Quiz) {
	if view.WantsJSON(r) {
		w.Header().Set("Location", location)
		if err := h.View.JSON(w, jsonStatus, q); err != nil {
			h.Log.Error("render failed", "error", err)
		}
		return
	}
	h.flash(r, "success", msg)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// flash queues a message for the next HTML page. JSON clients never render
// flashes, so nothing is queued for them.
func (h *Quizzes) flash(r *http.Request, kind, msg string) {
	if view.WantsJSON(r) {
		return
	}
	if s := session.FromContext(r.Context()); s != nil {
		s.AddFlash(kind, msg)
	}
}

func (h *Quizzes) record(r *http.Request, typ string, q quiz.Quiz) {
	if h.Events == nil {
		return
	}
	by := auth.SubjectFromContext(r.Context())
	e := eventlog.New(typ, strconv.FormatInt(q.ID, 10), q)
	if err := h.Events.Append(r.Context(), e); err != nil {
		h.Log.Warn("event append failed", "type", typ, "quiz_id", q.ID, "by", by, "error", err)
		return
	}
	h.Log.Info("quiz changed", "type", typ, "quiz_id", q.ID, "by", by)
}

// decodeQuiz reads question/answer from a JSON body or a form.
func decodeQuiz(r *http.Request) (quiz.Quiz, error) {
	var in quiz.Quiz
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return in, err
		}
		in.Question, in.Answer = body.Question, body.Answer
		return in, nil
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.Question, in.Answer = r.PostForm.Get("question"), r.PostForm.Get("answer")
	return in, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
