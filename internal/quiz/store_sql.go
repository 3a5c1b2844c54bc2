package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func (s *SQLStore) Create(ctx context.Context, q Quiz) (Quiz, error) {
	if verrs := Validate(q); verrs != nil {
		return Quiz{}, verrs
	}
	ts := s.now().Unix()
	row := s.db.QueryRowContext(ctx, `INSERT INTO quizzes (question,answer,created_at,updated_at)
		VALUES ($1,$2,$3,$4) RETURNING id`, q.Question, q.Answer, ts, ts)
	if err := row.Scan(&q.ID); err != nil {
		return Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	q.CreatedAt, q.UpdatedAt = ts, ts
	return q, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,question,answer,created_at,updated_at FROM quizzes WHERE id=$1`, id)
	var q Quiz
	if err := row.Scan(&q.ID, &q.Question, &q.Answer, &q.CreatedAt, &q.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrNotFound
		}
		return Quiz{}, err
	}
	return q, nil
}

// Update stores question and answer only; timestamps are managed here.
func (s *SQLStore) Update(ctx context.Context, q Quiz) (Quiz, error) {
	if verrs := Validate(q); verrs != nil {
		return Quiz{}, verrs
	}
	res, err := s.db.ExecContext(ctx, `UPDATE quizzes SET question=$1, answer=$2, updated_at=$3 WHERE id=$4`,
		q.Question, q.Answer, s.now().Unix(), q.ID)
	if err != nil {
		return Quiz{}, fmt.Errorf("update quiz %d: %w", q.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Quiz{}, ErrNotFound
	}
	return s.Get(ctx, q.ID)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context, q Query) (int, error) {
	where, args := s.where(q.Filters)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Find(ctx context.Context, q Query) ([]Quiz, error) {
	where, args := s.where(q.Filters)
	sqlStr := `SELECT id,question,answer,created_at,updated_at FROM quizzes` + where + ` ORDER BY id`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sqlStr += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if q.Offset > 0 {
		if q.Limit <= 0 {
			// both dialects need a LIMIT before OFFSET in this form
			args = append(args, int64(1<<62))
			sqlStr += ` LIMIT $` + strconv.Itoa(len(args))
		}
		args = append(args, q.Offset)
		sqlStr += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("find quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]Quiz, 0, 16)
	for rows.Next() {
		var qz Quiz
		if err := rows.Scan(&qz.ID, &qz.Question, &qz.Answer, &qz.CreatedAt, &qz.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, qz)
	}
	return out, rows.Err()
}

// where renders filters as a WHERE clause with $n placeholders.
func (s *SQLStore) where(filters []Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	inList := func(ids []int64) string {
		ph := make([]string, len(ids))
		for i, id := range ids {
			ph[i] = next(id)
		}
		return strings.Join(ph, ",")
	}

	for _, f := range filters {
		switch f.Kind {
		case FilterQuestionLike:
			if f.Pattern == "" {
				continue
			}
			op := "LIKE"
			if s.driver == "postgres" {
				op = "ILIKE"
			}
			conds = append(conds, "question "+op+" "+next(f.Pattern))
		case FilterExcludeIDs:
			if len(f.IDs) == 0 {
				continue
			}
			conds = append(conds, "id NOT IN ("+inList(f.IDs)+")")
		case FilterIncludeIDs:
			if len(f.IDs) == 0 {
				conds = append(conds, "1=0")
				continue
			}
			conds = append(conds, "id IN ("+inList(f.IDs)+")")
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
