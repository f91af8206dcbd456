package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-scraper-bot/internal/domain/ports/adapter"
)

// replyKeyboard builds the reply keyboard for k, or nil when none should be attached.
func replyKeyboard(k adapter.Keyboard) interface{} {
	var rows [][]tgbotapi.KeyboardButton
	switch k {
	case adapter.KeyboardStart:
		rows = [][]tgbotapi.KeyboardButton{
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelHelp), tgbotapi.NewKeyboardButton(LabelShops)),
		}
	case adapter.KeyboardResources:
		rows = [][]tgbotapi.KeyboardButton{
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelDigikala)),
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelEbay)),
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelGlobal)),
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelCancel)),
		}
	default:
		return nil
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// menuCommands is the slash command menu shown by Telegram clients.
func menuCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "help", Description: "How to use the bot"},
		{Command: "shop", Description: "List searchable stores"},
		{Command: "cancel", Description: "Cancel the current search"},
	}
}
