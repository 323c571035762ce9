package ui

import "civiclens_bot/internal/domain/enums"

const (
	MenuLogin          = "Log in"
	MenuSignup         = "Sign up"
	MenuForgotPassword = "Forgot password"
	MenuPublicFeed     = "Public Feed"
	MenuRatings        = "Ratings"
	MenuForum          = "Forum"
	MenuVault          = "My Vault"
	MenuReportOfficial = "Report Official"
	MenuPolicies       = "Policies"
	MenuReviewQueues   = "Review Queues"
	MenuUsers          = "Users"
	MenuHistory        = "History"
	MenuLogout         = "Log out"
)

func MenuByRole(role enums.Role) [][]string {
	switch role {
	case enums.RoleAdmin:
		return [][]string{
			{MenuRatings, MenuForum},
			{MenuVault, MenuPublicFeed},
			{MenuReportOfficial, MenuPolicies},
			{MenuReviewQueues, MenuUsers},
			{MenuHistory, MenuLogout},
		}
	case enums.RoleCitizen, enums.RoleOfficialPending, enums.RoleOfficialVerified:
		return [][]string{
			{MenuRatings, MenuForum},
			{MenuVault, MenuPublicFeed},
			{MenuReportOfficial, MenuPolicies},
			{MenuLogout},
		}
	default:
		return [][]string{
			{MenuLogin, MenuSignup},
			{MenuPublicFeed},
			{MenuForgotPassword},
		}
	}
}
