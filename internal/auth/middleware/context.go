package auth

import "context"

type subjectKey struct{}

// Anonymous is the subject of requests that carry no valid token.
const Anonymous = "anonymous"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFromContext returns the logged-in user, or Anonymous.
func SubjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(subjectKey{}).(string); ok && s != "" {
		return s
	}
	return Anonymous
}
