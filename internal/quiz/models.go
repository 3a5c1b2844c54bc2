package quiz

import (
	"errors"
	"sort"
	"strings"
)

var ErrNotFound = errors.New("quiz not found")

type Quiz struct {
	ID        int64  `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
	UpdatedAt int64  `json:"updated_at,omitempty"`
}

// ValidationErrors maps a field name to its messages.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], ", "))
	}
	return "invalid quiz: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Messages flattens the errors in field order, for flash display.
func (v ValidationErrors) Messages() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var out []string
	for _, f := range fields {
		out = append(out, v[f]...)
	}
	return out
}

// Validate returns nil when q can be stored.
func Validate(q Quiz) ValidationErrors {
	errs := ValidationErrors{}
	if strings.TrimSpace(q.Question) == "" {
		errs.Add("question", "question must not be empty")
	}
	if strings.TrimSpace(q.Answer) == "" {
		errs.Add("answer", "answer must not be empty")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
