package dialogue

import (
	"strconv"
	"strings"
)

// EventKind is the shape of an inbound interaction.
type EventKind string

const (
	KindCommand EventKind = "command"
	KindText    EventKind = "text"
	KindChoice  EventKind = "choice"
	KindContact EventKind = "contact"
)

// Event is one inbound interaction from the messaging channel.
type Event struct {
	// SessionKey scopes conversation state. Empty means the user id.
	SessionKey string
	UserID     int64
	ChatID     int64
	Username   string

	Kind EventKind
	// Text is the message text, or the command name ("/start") for commands.
	Text string
	// Data is the "prefix:value" payload of a pressed button.
	Data string
	// Phone is set for shared contacts.
	Phone string
	// MessageID is the message carrying the pressed button.
	MessageID int
}

// Key returns the session key of the event.
func (e Event) Key() string {
	if e.SessionKey != "" {
		return e.SessionKey
	}
	return strconv.FormatInt(e.UserID, 10)
}

// choice splits Data into its prefix and value.
func (e Event) choice() (prefix, value string) {
	prefix, value, _ = strings.Cut(e.Data, ":")
	return prefix, value
}

// Choice is one inline button.
type Choice struct {
	Label string
	Data  string
}

// Reply is one outbound message produced by the engine.
type Reply struct {
	// ChatID overrides the destination; 0 answers in the event's chat.
	ChatID int64
	Text   string
	HTML   bool

	// Choices renders an inline keyboard.
	Choices [][]Choice
	// Keyboard renders a reply keyboard of plain labels.
	Keyboard [][]string
	// RequestContact turns the reply keyboard buttons into contact requests.
	RequestContact bool
	RemoveKeyboard bool

	// EditMessageID edits an earlier message instead of sending a new one.
	// An empty Text only strips its inline keyboard.
	EditMessageID int
}
