package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// InlineButton is one callback button: Data is the "prefix:action:args"
// string the router dispatches on.
type InlineButton struct {
	Text string
	Data string
}

// BuildReplyKeyboard turns a role menu (rows of labels) into the persistent
// keyboard under the chat input.
func BuildReplyKeyboard(menu [][]string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(menu))
	for _, labels := range menu {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, row)
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = false
	keyboard.Selective = true
	return keyboard
}

// BuildInlineKeyboard attaches action buttons to a card: feed filters,
// viewer navigation, queue decisions.
func BuildInlineKeyboard(buttons [][]InlineButton) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, line := range buttons {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(line))
		for _, button := range line {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
