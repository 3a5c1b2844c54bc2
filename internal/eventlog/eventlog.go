package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypeQuizCreated           = "QuizCreated"
	TypeQuizUpdated           = "QuizUpdated"
	TypeQuizDeleted           = "QuizDeleted"
	TypeRandomStreakCompleted = "RandomStreakCompleted"
)

type Event struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// Recorder is what producers depend on; *Repo is the SQL implementation.
type Recorder interface {
	Append(ctx context.Context, e Event) error
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	if e.DataJSON == "" {
		e.DataJSON = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// List returns events after the given offset in append order. GET /events
// pages through it with the last offset seen.
func (r *Repo) List(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT "offset", site_id, typ, key, data, created_at FROM event_log
		 WHERE "offset" > $1 ORDER BY "offset" LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// New builds an event with a JSON payload. Marshal failures degrade to "{}".
func New(typ, key string, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("{}")
	}
	return Event{Type: typ, Key: key, DataJSON: string(raw)}
}
