package eventlog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/eventlog"
)

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:eventlog_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer dbh.Close()

	repo := eventlog.NewRepo(dbh)
	require.NoError(t, repo.Append(ctx, eventlog.New(eventlog.TypeQuizCreated, "1", map[string]any{"question": "q"})))
	require.NoError(t, repo.Append(ctx, eventlog.Event{Type: eventlog.TypeQuizDeleted, Key: "1"}))

	events, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, eventlog.TypeQuizCreated, events[0].Type)
	assert.JSONEq(t, `{"question":"q"}`, events[0].DataJSON)
	assert.Equal(t, "local", events[1].SiteID)
	assert.Equal(t, "{}", events[1].DataJSON)

	later, err := repo.List(ctx, events[0].Offset, 10)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, eventlog.TypeQuizDeleted, later[0].Type)
}
