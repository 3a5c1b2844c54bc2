package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerWildcards(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{RoleGuest, "quiz:play", true},
		{RoleGuest, "quiz:edit", false},
		{RoleEditor, "quiz:delete", true},
		{RoleEditor, "events:list", false},
		{RoleAdmin, "anything:at-all", true},
		{"", "quiz:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q,%q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
	if !c.Any(RoleGuest, "quiz:edit", "quiz:view") {
		t.Error("Any should accept guest view")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require("quiz:create")(ok)

	for role, want := range map[string]int{RoleGuest: http.StatusForbidden, RoleEditor: http.StatusNoContent, "": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/quizzes", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %q: got %d, want %d", role, rec.Code, want)
		}
	}

	if !Can(WithRole(context.Background(), RoleEditor), "quiz:edit") {
		t.Error("editor can edit")
	}
}
