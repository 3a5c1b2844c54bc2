package randomplay_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mind-engage/mindengage-quiz/internal/eventlog"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/randomplay"
)

/* ---------------- in-memory fake satisfying randomplay.Store ---------------- */

type fakeStore struct {
	quizzes map[int64]quiz.Quiz
	err     error
}

func newFakeStore(qs ...quiz.Quiz) *fakeStore {
	s := &fakeStore{quizzes: map[int64]quiz.Quiz{}}
	for _, q := range qs {
		s.quizzes[q.ID] = q
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, id int64) (quiz.Quiz, error) {
	if s.err != nil {
		return quiz.Quiz{}, s.err
	}
	q, ok := s.quizzes[id]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	return q, nil
}

func (s *fakeStore) match(q quiz.Query) []quiz.Quiz {
	var out []quiz.Quiz
	for _, qz := range s.quizzes {
		ok := true
		for _, f := range q.Filters {
			switch f.Kind {
			case quiz.FilterExcludeIDs:
				ok = ok && !contains(f.IDs, qz.ID)
			case quiz.FilterIncludeIDs:
				ok = ok && contains(f.IDs, qz.ID)
			}
		}
		if ok {
			out = append(out, qz)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeStore) Count(_ context.Context, q quiz.Query) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.match(q)), nil
}

func (s *fakeStore) Find(_ context.Context, q quiz.Query) ([]quiz.Quiz, error) {
	if s.err != nil {
		return nil, s.err
	}
	rows := s.match(q)
	if q.Offset >= len(rows) {
		return nil, nil
	}
	rows = rows[q.Offset:]
	if q.Limit > 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type recorder struct{ events []eventlog.Event }

func (r *recorder) Append(_ context.Context, e eventlog.Event) error {
	r.events = append(r.events, e)
	return nil
}

func pool() []quiz.Quiz {
	return []quiz.Quiz{
		{ID: 1, Question: "Capital of France", Answer: "Paris"},
		{ID: 2, Question: "Capital of Spain", Answer: "Madrid"},
		{ID: 3, Question: "Capital of Portugal", Answer: "Lisbon"},
	}
}

func TestStreakScenario(t *testing.T) {
	ctx := context.Background()
	svc := randomplay.NewService(newFakeStore(pool()...), randomplay.WithRand(func(n int) int { return n - 1 }))
	st := &randomplay.State{}

	p, err := svc.PresentNext(ctx, st)
	require.NoError(t, err)
	require.False(t, p.Done)
	assert.Equal(t, 0, p.Score)
	assert.Equal(t, int64(3), p.Quiz.ID)
	assert.Equal(t, int64(3), st.CurrentID)

	res := svc.SubmitAnswer(st, p.Quiz, " lisbon ")
	assert.True(t, res.Correct)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, []int64{3}, st.SolvedIDs)
	assert.Zero(t, st.CurrentID)

	p, err = svc.PresentNext(ctx, st)
	require.NoError(t, err)
	assert.Contains(t, []int64{1, 2}, p.Quiz.ID)
	assert.Equal(t, 1, p.Score)

	res = svc.SubmitAnswer(st, p.Quiz, "wrong")
	assert.False(t, res.Correct)
	assert.Equal(t, 0, res.Score)
	assert.Empty(t, st.SolvedIDs)
}

func TestExhaustionResetsStreak(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	svc := randomplay.NewService(newFakeStore(quiz.Quiz{ID: 1, Question: "q", Answer: "a"}), randomplay.WithEvents(rec))
	st := &randomplay.State{SolvedIDs: []int64{1}}

	p, err := svc.PresentNext(ctx, st)
	require.NoError(t, err)
	assert.True(t, p.Done)
	assert.Equal(t, 1, p.Score)
	assert.Empty(t, st.SolvedIDs)
	require.Len(t, rec.events, 1)
	assert.Equal(t, eventlog.TypeRandomStreakCompleted, rec.events[0].Type)

	// next call sees the full pool again
	p, err = svc.PresentNext(ctx, st)
	require.NoError(t, err)
	assert.False(t, p.Done)
	assert.Equal(t, int64(1), p.Quiz.ID)
	assert.Equal(t, 0, p.Score)
}

func TestEmptyPoolIsDoneWithZero(t *testing.T) {
	svc := randomplay.NewService(newFakeStore())
	p, err := svc.PresentNext(context.Background(), &randomplay.State{})
	require.NoError(t, err)
	assert.True(t, p.Done)
	assert.Zero(t, p.Score)
}

func TestFullPlaythroughNeverRepeats(t *testing.T) {
	ctx := context.Background()
	svc := randomplay.NewService(newFakeStore(pool()...))
	st := &randomplay.State{}
	answers := map[int64]string{1: "PARIS", 2: "madrid ", 3: "Lisbon"}

	seen := map[int64]bool{}
	for i := 0; i < 3; i++ {
		p, err := svc.PresentNext(ctx, st)
		require.NoError(t, err)
		require.False(t, p.Done)
		require.False(t, seen[p.Quiz.ID], "quiz %d repeated within a streak", p.Quiz.ID)
		seen[p.Quiz.ID] = true
		require.True(t, svc.SubmitAnswer(st, p.Quiz, answers[p.Quiz.ID]).Correct)
	}
	assert.Len(t, st.SolvedIDs, 3)

	p, err := svc.PresentNext(ctx, st)
	require.NoError(t, err)
	assert.True(t, p.Done)
	assert.Equal(t, 3, p.Score)
}

func TestSelectionIsUniform(t *testing.T) {
	ctx := context.Background()
	svc := randomplay.NewService(newFakeStore(pool()...))
	counts := map[int64]int{}
	for i := 0; i < 3000; i++ {
		p, err := svc.PresentNext(ctx, &randomplay.State{})
		require.NoError(t, err)
		counts[p.Quiz.ID]++
	}
	for id, c := range counts {
		assert.InDelta(t, 1000, c, 200, "quiz %d drawn %d times", id, c)
	}
	assert.Len(t, counts, 3)
}

func TestDuplicateCorrectAnswerIsNotCountedTwice(t *testing.T) {
	svc := randomplay.NewService(newFakeStore(pool()...))
	st := &randomplay.State{}
	q := pool()[0]
	svc.SubmitAnswer(st, q, "paris")
	res := svc.SubmitAnswer(st, q, "paris")
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, []int64{1}, st.SolvedIDs)
}

func TestDeletedQuizzesArePrunedFromStreak(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(pool()...)
	svc := randomplay.NewService(store)
	st := &randomplay.State{SolvedIDs: []int64{1, 2}}
	delete(store.quizzes, 1)

	p, err := svc.PresentNext(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, st.SolvedIDs)
	assert.Equal(t, int64(3), p.Quiz.ID)
	assert.Equal(t, 1, p.Score)
}

func TestPending(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(pool()...)
	svc := randomplay.NewService(store)

	_, err := svc.Pending(ctx, &randomplay.State{})
	assert.ErrorIs(t, err, randomplay.ErrNoPending)

	q, err := svc.Pending(ctx, &randomplay.State{CurrentID: 2})
	require.NoError(t, err)
	assert.Equal(t, "Madrid", q.Answer)

	st := &randomplay.State{CurrentID: 99}
	_, err = svc.Pending(ctx, st)
	assert.ErrorIs(t, err, randomplay.ErrNoPending)
	assert.Zero(t, st.CurrentID)
}

func TestStoreFailurePropagates(t *testing.T) {
	boom := errors.New("db down")
	store := newFakeStore(pool()...)
	store.err = boom
	svc := randomplay.NewService(store)

	_, err := svc.PresentNext(context.Background(), &randomplay.State{})
	assert.ErrorIs(t, err, boom)
}

type failingRecorder struct{}

func (failingRecorder) Append(context.Context, eventlog.Event) error { return errors.New("event_log locked") }

func TestStreakEventFailureIsLoggedNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := randomplay.NewService(newFakeStore(),
		randomplay.WithEvents(failingRecorder{}),
		randomplay.WithLogger(logger.FromZap(zap.New(core))),
	)

	p, err := svc.PresentNext(context.Background(), &randomplay.State{SolvedIDs: nil})
	require.NoError(t, err)
	assert.True(t, p.Done)

	entries := logs.FilterMessage("event append failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, eventlog.TypeRandomStreakCompleted, entries[0].ContextMap()["type"])
	assert.Equal(t, "event_log locked", entries[0].ContextMap()["error"])
}
