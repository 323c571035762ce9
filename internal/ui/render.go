package ui

import "civiclens_bot/internal/domain/enums"

func RenderStart(role enums.Role) (string, [][]string) {
	return StartMessage(role), MenuByRole(role)
}
