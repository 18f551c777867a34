package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Placeholders used when the listing behind an application no longer resolves.
const (
	ListingNotFoundTitle = "Объявление не найдено (id потерян)."
	ListingNotFoundLink  = "-"
)

// UserIdentity identifies the applicant on the messaging channel.
type UserIdentity struct {
	ID       int64
	Username string
}

// Display returns "@username" or "id: <n>" when the user has no username.
func (u UserIdentity) Display() string {
	if name := strings.TrimPrefix(strings.TrimSpace(u.Username), "@"); name != "" {
		return "@" + name
	}
	return "id: " + strconv.FormatInt(u.ID, 10)
}

// Application is the compiled questionnaire. It is built at the terminal
// step, dispatched and then discarded.
type Application struct {
	ListingID    string
	ListingTitle string
	ListingLink  string

	People      string
	Nationality string
	Pets        string
	Income      string
	Period      string
	Viewing     string
	Phone       string

	User        UserIdentity
	SubmittedAt time.Time
}

// WithMissingListing fills the listing fields with the "not found" placeholders.
func (a Application) WithMissingListing() Application {
	a.ListingTitle = ListingNotFoundTitle
	a.ListingLink = ListingNotFoundLink
	return a
}

// Subject is a one-line summary used for email recipients.
func (a Application) Subject() string {
	return fmt.Sprintf("Новая заявка: %s (%s)", a.ListingTitle, a.User.Display())
}

// Text renders the application for operators.
func (a Application) Text() string {
	var b strings.Builder
	b.WriteString("Новая заявка по объекту:\n\n")
	fmt.Fprintf(&b, "Объявление: %s\n", a.ListingTitle)
	fmt.Fprintf(&b, "Ссылка: %s\n\n", a.ListingLink)
	fmt.Fprintf(&b, "Сколько человек: %s\n", a.People)
	fmt.Fprintf(&b, "Национальность: %s\n", a.Nationality)
	fmt.Fprintf(&b, "Животные: %s\n", a.Pets)
	fmt.Fprintf(&b, "Подтверждение доходов: %s\n", a.Income)
	fmt.Fprintf(&b, "Период аренды: %s\n", a.Period)
	fmt.Fprintf(&b, "Дата/время просмотра: %s\n", a.Viewing)
	fmt.Fprintf(&b, "Телефон: %s\n\n", a.Phone)
	fmt.Fprintf(&b, "Пользователь: %s", a.User.Display())
	return b.String()
}
