package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wolfman30/rental-intake-bot/internal/dialogue"
)

// ToEvent converts an update into a dialogue event. Updates from group
// chats and updates without a sender are dropped.
func ToEvent(update tgbotapi.Update) (dialogue.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil {
			return dialogue.Event{}, false
		}
		ev := dialogue.Event{
			UserID:   cb.From.ID,
			ChatID:   cb.From.ID,
			Username: cb.From.UserName,
			Kind:     dialogue.KindChoice,
			Data:     cb.Data,
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.ChatID = cb.Message.Chat.ID
			ev.MessageID = cb.Message.MessageID
		}
		return ev, true

	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
			return dialogue.Event{}, false
		}
		ev := dialogue.Event{
			UserID:    msg.From.ID,
			ChatID:    msg.Chat.ID,
			Username:  msg.From.UserName,
			MessageID: msg.MessageID,
		}
		switch {
		case msg.Contact != nil:
			ev.Kind = dialogue.KindContact
			ev.Phone = msg.Contact.PhoneNumber
		case msg.IsCommand():
			ev.Kind = dialogue.KindCommand
			ev.Text = "/" + msg.Command()
		case msg.Text != "":
			ev.Kind = dialogue.KindText
			ev.Text = msg.Text
		default:
			return dialogue.Event{}, false
		}
		return ev, true
	}
	return dialogue.Event{}, false
}

// Render converts a reply into a Bot API request for chatID.
func Render(chatID int64, reply dialogue.Reply) tgbotapi.Chattable {
	if reply.ChatID != 0 {
		chatID = reply.ChatID
	}

	if reply.EditMessageID != 0 {
		if reply.Text == "" {
			return tgbotapi.NewEditMessageReplyMarkup(chatID, reply.EditMessageID, tgbotapi.InlineKeyboardMarkup{
				InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
			})
		}
		edit := tgbotapi.NewEditMessageText(chatID, reply.EditMessageID, reply.Text)
		if reply.HTML {
			edit.ParseMode = tgbotapi.ModeHTML
		}
		return edit
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	switch {
	case len(reply.Choices) > 0:
		msg.ReplyMarkup = inlineKeyboard(reply.Choices)
	case len(reply.Keyboard) > 0:
		msg.ReplyMarkup = replyKeyboard(reply.Keyboard, reply.RequestContact)
	case reply.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	return msg
}

func inlineKeyboard(choices [][]dialogue.Choice) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, row := range choices {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, c := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func replyKeyboard(labels [][]string, requestContact bool) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labels))
	for _, row := range labels {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			if requestContact {
				buttons = append(buttons, tgbotapi.NewKeyboardButtonContact(label))
			} else {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = requestContact
	return kb
}
