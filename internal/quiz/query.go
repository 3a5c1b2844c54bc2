package quiz

import (
	"regexp"
)

type FilterKind int

const (
	// FilterQuestionLike matches questions against a SQL LIKE pattern (Pattern).
	FilterQuestionLike FilterKind = iota + 1
	// FilterExcludeIDs drops quizzes whose id is in IDs. An empty IDs excludes nothing.
	FilterExcludeIDs
	// FilterIncludeIDs keeps only quizzes whose id is in IDs. An empty IDs matches nothing.
	FilterIncludeIDs
)

type Filter struct {
	Kind    FilterKind
	Pattern string
	IDs     []int64
}

// Query is the typed selection handed to a Store. Filters are ANDed; rows are ordered by id.
type Query struct {
	Filters []Filter
	Limit   int // 0 = no limit
	Offset  int
}

func QuestionLike(pattern string) Filter { return Filter{Kind: FilterQuestionLike, Pattern: pattern} }
func ExcludeIDs(ids []int64) Filter      { return Filter{Kind: FilterExcludeIDs, IDs: ids} }
func IncludeIDs(ids []int64) Filter      { return Filter{Kind: FilterIncludeIDs, IDs: ids} }

var spaceRun = regexp.MustCompile(` +`)

// SearchPattern turns a user search into a LIKE pattern: runs of spaces become
// wildcards and the whole term is wrapped in wildcards. "two words" -> "%two%words%".
func SearchPattern(search string) string {
	if search == "" {
		return ""
	}
	return "%" + spaceRun.ReplaceAllString(search, "%") + "%"
}

// SearchQuery builds the list query for a search term; an empty term matches everything.
func SearchQuery(search string) Query {
	var q Query
	if p := SearchPattern(search); p != "" {
		q.Filters = append(q.Filters, QuestionLike(p))
	}
	return q
}
