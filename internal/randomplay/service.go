package randomplay

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/mind-engage/mindengage-quiz/internal/eventlog"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// ErrNoPending is returned by Pending when no question is waiting for an answer.
var ErrNoPending = errors.New("no random question pending")

// Store is the part of quiz.Store random play needs.
type Store interface {
	Get(ctx context.Context, id int64) (quiz.Quiz, error)
	Count(ctx context.Context, q quiz.Query) (int, error)
	Find(ctx context.Context, q quiz.Query) ([]quiz.Quiz, error)
}

// Intn draws an int in [0,n).
type Intn func(n int) int

// Presentation is the outcome of PresentNext: either a quiz to answer or Done.
type Presentation struct {
	Quiz  quiz.Quiz `json:"quiz"`
	Done  bool      `json:"done"`
	Score int       `json:"score"`
}

type Result struct {
	Correct bool   `json:"result"`
	Score   int    `json:"score"`
	Answer  string `json:"answer"`
}

type Service struct {
	store  Store
	intn   Intn
	events eventlog.Recorder
	log    *logger.Logger
}

type Option func(*Service)

// WithRand replaces the random source (tests use a fixed sequence).
func WithRand(f Intn) Option { return func(s *Service) { s.intn = f } }

// WithEvents records RandomStreakCompleted when a streak is exhausted.
func WithEvents(r eventlog.Recorder) Option { return func(s *Service) { s.events = r } }

// WithLogger sets where failed event appends are reported.
func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, intn: rand.IntN, log: logger.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PresentNext picks a quiz uniformly at random among those not yet solved in
// the current streak. When none remain it reports Done with the final score and
// starts a new streak.
func (s *Service) PresentNext(ctx context.Context, st *State) (Presentation, error) {
	if err := s.prune(ctx, st); err != nil {
		return Presentation{}, err
	}
	filters := []quiz.Filter{quiz.ExcludeIDs(st.SolvedIDs)}

	n, err := s.store.Count(ctx, quiz.Query{Filters: filters})
	if err != nil {
		return Presentation{}, fmt.Errorf("count remaining: %w", err)
	}
	if n > 0 {
		rows, err := s.store.Find(ctx, quiz.Query{Filters: filters, Limit: 1, Offset: s.intn(n)})
		if err != nil {
			return Presentation{}, fmt.Errorf("select remaining: %w", err)
		}
		if len(rows) == 0 {
			// pool shrank between count and select
			rows, err = s.store.Find(ctx, quiz.Query{Filters: filters, Limit: 1})
			if err != nil {
				return Presentation{}, fmt.Errorf("select remaining: %w", err)
			}
		}
		if len(rows) > 0 {
			st.CurrentID = rows[0].ID
			return Presentation{Quiz: rows[0], Score: st.Score()}, nil
		}
	}

	score := st.Score()
	st.Reset()
	if s.events != nil {
		e := eventlog.New(eventlog.TypeRandomStreakCompleted, strconv.Itoa(score), map[string]int{"score": score})
		if err := s.events.Append(ctx, e); err != nil {
			s.log.Warn("event append failed", "type", e.Type, "score", score, "error", err)
		}
	}
	return Presentation{Done: true, Score: score}, nil
}

// Pending loads the quiz handed out by the last PresentNext.
func (s *Service) Pending(ctx context.Context, st *State) (quiz.Quiz, error) {
	if st == nil || st.CurrentID == 0 {
		return quiz.Quiz{}, ErrNoPending
	}
	q, err := s.store.Get(ctx, st.CurrentID)
	if errors.Is(err, quiz.ErrNotFound) {
		st.CurrentID = 0
		return quiz.Quiz{}, ErrNoPending
	}
	return q, err
}

// SubmitAnswer extends the streak on a correct answer and resets it otherwise.
func (s *Service) SubmitAnswer(st *State, q quiz.Quiz, raw string) Result {
	st.CurrentID = 0
	if !grading.Matches(raw, q.Answer) {
		st.Reset()
		return Result{Correct: false, Score: 0, Answer: raw}
	}
	st.markSolved(q.ID)
	return Result{Correct: true, Score: st.Score(), Answer: raw}
}

// prune drops solved ids whose quiz no longer exists.
func (s *Service) prune(ctx context.Context, st *State) error {
	if len(st.SolvedIDs) == 0 {
		return nil
	}
	rows, err := s.store.Find(ctx, quiz.Query{Filters: []quiz.Filter{quiz.IncludeIDs(st.SolvedIDs)}})
	if err != nil {
		return fmt.Errorf("load solved quizzes: %w", err)
	}
	if len(rows) == len(st.SolvedIDs) {
		return nil
	}
	alive := make(map[int64]bool, len(rows))
	for _, r := range rows {
		alive[r.ID] = true
	}
	kept := st.SolvedIDs[:0]
	for _, id := range st.SolvedIDs {
		if alive[id] {
			kept = append(kept, id)
		}
	}
	st.SolvedIDs = kept
	return nil
}
