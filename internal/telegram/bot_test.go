package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/rental-intake-bot/internal/dialogue"
	"github.com/wolfman30/rental-intake-bot/internal/session"
	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

type echoHandler struct {
	mu     sync.Mutex
	events []dialogue.Event
}

func (h *echoHandler) Handle(_ context.Context, ev dialogue.Event) []dialogue.Reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return []dialogue.Reply{{Text: "echo: " + ev.Text + ev.Data}}
}

func privateMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 5,
		From:      &tgbotapi.User{ID: userID, UserName: "maria"},
		Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		Text:      text,
	}
}

func TestToEventText(t *testing.T) {
	ev, ok := ToEvent(tgbotapi.Update{Message: privateMessage(7, "Бенидорм")})
	require.True(t, ok)
	assert.Equal(t, dialogue.KindText, ev.Kind)
	assert.Equal(t, "Бенидорм", ev.Text)
	assert.Equal(t, int64(7), ev.UserID)
	assert.Equal(t, int64(7), ev.ChatID)
	assert.Equal(t, "maria", ev.Username)
	assert.Equal(t, "7", ev.Key())
}

func TestToEventCommand(t *testing.T) {
	msg := privateMessage(7, "/start@rental_bot")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len("/start@rental_bot")}}

	ev, ok := ToEvent(tgbotapi.Update{Message: msg})
	require.True(t, ok)
	assert.Equal(t, dialogue.KindCommand, ev.Kind)
	assert.Equal(t, "/start", ev.Text)
}

func TestToEventContact(t *testing.T) {
	msg := privateMessage(7, "")
	msg.Contact = &tgbotapi.Contact{PhoneNumber: "+34600000000", UserID: 7}

	ev, ok := ToEvent(tgbotapi.Update{Message: msg})
	require.True(t, ok)
	assert.Equal(t, dialogue.KindContact, ev.Kind)
	assert.Equal(t, "+34600000000", ev.Phone)
}

func TestToEventCallback(t *testing.T) {
	ev, ok := ToEvent(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: 7, Type: "private"}},
		Data:    "rooms:3+",
	}})
	require.True(t, ok)
	assert.Equal(t, dialogue.KindChoice, ev.Kind)
	assert.Equal(t, "rooms:3+", ev.Data)
	assert.Equal(t, 99, ev.MessageID)
}

func TestToEventSkips(t *testing.T) {
	group := privateMessage(7, "hello")
	group.Chat = &tgbotapi.Chat{ID: -100, Type: "supergroup"}
	anonymous := privateMessage(7, "hello")
	anonymous.From = nil
	sticker := privateMessage(7, "")

	for _, update := range []tgbotapi.Update{
		{},
		{Message: group},
		{Message: anonymous},
		{Message: sticker},
		{CallbackQuery: &tgbotapi.CallbackQuery{Data: "x"}},
	} {
		_, ok := ToEvent(update)
		assert.False(t, ok)
	}
}

func TestRenderInlineChoices(t *testing.T) {
	c := Render(7, dialogue.Reply{
		Text:    "<b>t</b>",
		HTML:    true,
		Choices: [][]dialogue.Choice{{{Label: "Аренда", Data: "type:rent"}, {Label: "Покупка", Data: "type:buy"}}},
	})
	msg, ok := c.(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(7), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "type:buy", *markup.InlineKeyboard[0][1].CallbackData)
}

func TestRenderContactKeyboard(t *testing.T) {
	c := Render(7, dialogue.Reply{Text: "phone?", Keyboard: [][]string{{"Отправить контакт"}}, RequestContact: true})
	msg := c.(tgbotapi.MessageConfig)
	markup, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, markup.Keyboard[0][0].RequestContact)
	assert.True(t, markup.OneTimeKeyboard)
	assert.True(t, markup.ResizeKeyboard)

	c = Render(7, dialogue.Reply{Text: "city?", Keyboard: [][]string{{"Бенидорм", "Аликанте"}}})
	markup = c.(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	assert.False(t, markup.Keyboard[0][1].RequestContact)
	assert.False(t, markup.OneTimeKeyboard)
}

func TestRenderRemoveKeyboardAndEdits(t *testing.T) {
	msg := Render(7, dialogue.Reply{Text: "done", RemoveKeyboard: true}).(tgbotapi.MessageConfig)
	remove, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
	require.True(t, ok)
	assert.True(t, remove.RemoveKeyboard)

	strip, ok := Render(7, dialogue.Reply{EditMessageID: 42}).(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, 42, strip.MessageID)
	require.NotNil(t, strip.ReplyMarkup)
	assert.Empty(t, strip.ReplyMarkup.InlineKeyboard)

	edit, ok := Render(7, dialogue.Reply{EditMessageID: 42, Text: "new"}).(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, "new", edit.Text)

	redirected := Render(7, dialogue.Reply{ChatID: -100, Text: "x"}).(tgbotapi.MessageConfig)
	assert.Equal(t, int64(-100), redirected.ChatID)
}

func TestRunProcessesUpdatesInOrder(t *testing.T) {
	api := newFakeAPI()
	handler := &echoHandler{}
	seq := session.NewSequencer(logging.Discard())
	bot := New(api, handler, seq, WithLogger(logging.Discard()))

	api.updates <- tgbotapi.Update{UpdateID: 1, Message: privateMessage(7, "first")}
	api.updates <- tgbotapi.Update{UpdateID: 2, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: 7, Type: "private"}},
		Data:    "type:rent",
	}}
	api.updates <- tgbotapi.Update{UpdateID: 3, Message: privateMessage(7, "third")}
	close(api.updates)

	require.NoError(t, bot.Run(context.Background()))
	seq.Close()
	seq.Wait()

	require.Len(t, handler.events, 3)
	assert.Equal(t, "first", handler.events[0].Text)
	assert.Equal(t, "type:rent", handler.events[1].Data)
	assert.Equal(t, "third", handler.events[2].Text)

	require.Len(t, api.sent, 3)
	assert.Equal(t, "echo: first", api.sent[0].(tgbotapi.MessageConfig).Text)
	require.Len(t, api.requests, 1)
	assert.IsType(t, tgbotapi.CallbackConfig{}, api.requests[0])
}

func TestRunStopsOnCancel(t *testing.T) {
	api := newFakeAPI()
	bot := New(api, &echoHandler{}, session.NewSequencer(logging.Discard()), WithLogger(logging.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, bot.Run(ctx))
	assert.True(t, api.stopped)
}

func TestRunRequiresHandler(t *testing.T) {
	bot := New(newFakeAPI(), nil, nil)
	assert.Error(t, bot.Run(context.Background()))
}

func TestSendTextAndBroadcast(t *testing.T) {
	api := newFakeAPI()
	bot := New(api, nil, nil)
	ctx := context.Background()

	require.NoError(t, bot.SendText(ctx, 1000, "Новая заявка"))
	require.NoError(t, bot.Broadcast(ctx, -100777, "<b>Студия</b>"))
	require.Len(t, api.sent, 2)
	assert.Empty(t, api.sent[0].(tgbotapi.MessageConfig).ParseMode)
	assert.Equal(t, tgbotapi.ModeHTML, api.sent[1].(tgbotapi.MessageConfig).ParseMode)

	api.sendErr = errors.New("Forbidden: bot was blocked by the user")
	assert.Error(t, bot.SendText(ctx, 1000, "x"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, bot.Broadcast(cancelled, -100777, "x"), context.Canceled)
}
