package rbac

// Default policy. Students drive the quiz flow and the tutor; teachers manage
// the question bank and generated content; admins get everything.
var RolePermissions = map[string][]string{
	"student": {
		"quiz:start",
		"quiz:answer",
		"quiz:finish",
		"quiz:view-own",
		"tutor:ask",
		"topics:view",
		"theory:view",
		"leaderboard:view",
	},
	"teacher": {
		"topics:view",
		"theory:view",
		"leaderboard:view",
		"bank:view",
		"bank:edit",
		"students:view",
		"results:view-all",
		"documents:manage",
		"genai:use",
	},
	"admin": {
		"*", // everything
	},
}
