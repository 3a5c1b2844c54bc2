package rbac

const (
	RoleGuest  = "guest"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// RolePermissions: guests read and play, editors manage quizzes.
var RolePermissions = map[string][]string{
	RoleGuest: {
		"quiz:view",
		"quiz:play",
	},
	RoleEditor: {
		"quiz:*",
	},
	RoleAdmin: {
		"*", // everything
	},
}
