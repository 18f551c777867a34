package dialogue

import (
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/rental-intake-bot/internal/listings"
)

// Commands and text triggers.
const (
	CommandStart   = "/start"
	CommandRestart = "/restart"
	CommandAdmin   = "/admin"
	RestartLabel   = "Начать заново"
)

// Button payload prefixes.
const (
	prefixType    = "type"
	prefixRooms   = "rooms"
	prefixContact = "contact"
	prefixPeople  = "people"
	prefixPets    = "pets"
	prefixIncome  = "income"
	prefixPeriod  = "period"
	prefixAdmin   = "admin"
)

// Admin actions carried after the "admin:" prefix.
const (
	adminActionAdd  = "add"
	adminActionList = "list"
	adminActionDel  = "del"
)

// Field names accumulated in the conversation state.
const (
	FieldCityCode    = "city_code"
	FieldDealType    = "deal_type"
	FieldRooms       = "rooms"
	FieldListingID   = "listing_id"
	FieldPeople      = "people"
	FieldNationality = "nationality"
	FieldPets        = "pets"
	FieldIncome      = "income"
	FieldPeriod      = "period"
	FieldViewing     = "viewing"
	FieldPhone       = "phone"
	FieldDescription = "description"
)

const (
	msgWelcome        = "Здравствуйте. Выберите город, в котором ищете объект:"
	msgCityChosen     = "Город: %s. Выберите тип: аренда или покупка."
	msgChooseRooms    = "Выберите количество комнат:"
	msgNoListings     = "К сожалению, по выбранным фильтрам объявлений пока нет."
	msgListingsFailed = "Не удалось загрузить объявления. Попробуйте ещё раз чуть позже."
	msgApplyButton    = "Связаться по этому объекту"
	msgPeople         = "Сколько человек будет проживать?"
	msgNationality    = "Укажите, пожалуйста, национальность (текстом):"
	msgPets           = "Есть ли животные?"
	msgIncome         = "Можете ли подтвердить доходы?"
	msgPeriod         = "На какой срок планируете аренду?"
	msgViewing        = "Укажите удобную дату и время просмотра (например: 15.12, после 17:00):"
	msgContact        = "Отправьте, пожалуйста, номер телефона (кнопкой ниже или просто текстом):"
	msgContactButton  = "Отправить контакт"
	msgSubmitted      = "Спасибо, заявка отправлена. Мы свяжемся с вами в ближайшее время."
	msgSomethingWrong = "Что-то пошло не так. Нажмите /start, чтобы начать заново."

	msgAdminMenu        = "Админ-панель:"
	msgAdminAddButton   = "Добавить объявление"
	msgAdminListButton  = "Список объявлений"
	msgAdminCity        = "Новое объявление. Выберите город:"
	msgAdminCityRetry   = "Не знаю такой город. Выберите город кнопкой ниже:"
	msgAdminCityChosen  = "Город: %s."
	msgAdminDealType    = "Выберите тип сделки:"
	msgAdminDescription = "Отправьте описание объекта. Первая строка станет заголовком."
	msgAdminLink        = "Отправьте ссылку на объявление:"
	msgAdminSaved       = "Объявление сохранено: %s"
	msgAdminSaveFailed  = "Не удалось сохранить объявление. Попробуйте ещё раз через /admin."
	msgAdminNoListings  = "Активных объявлений нет."
	msgAdminDeactivate  = "Деактивировать"
	msgAdminDeactivated = "Объявление снято с публикации."
	msgAdminNotFound    = "Объявление не найдено."
	msgAdminDelFailed   = "Не удалось деактивировать объявление."
)

// DefaultTitle is used when a listing description has no text.
const DefaultTitle = "Объявление"

const maxTitleRunes = 80

var (
	peopleOptions = []Choice{
		{Label: "1", Data: "1"}, {Label: "2", Data: "2"},
		{Label: "3–4", Data: "3-4"}, {Label: "5+", Data: "5+"},
	}
	petsOptions = []Choice{
		{Label: "Да", Data: "yes"}, {Label: "Нет", Data: "no"},
	}
	incomeOptions = []Choice{
		{Label: "Да", Data: "yes"}, {Label: "Нет", Data: "no"}, {Label: "Autónomo", Data: "autonomo"},
	}
	periodOptions = []Choice{
		{Label: "3–6 месяцев", Data: "3-6"}, {Label: "6–12 месяцев", Data: "6-12"},
		{Label: "12+ месяцев", Data: "12+"}, {Label: "Иной вариант", Data: "other"},
	}
)

// validOption reports whether value is the payload of one of options.
func validOption(options []Choice, value string) bool {
	for _, o := range options {
		if o.Data == value {
			return true
		}
	}
	return false
}

// choiceRows prefixes option payloads and lays them out perRow per row.
func choiceRows(prefix string, options []Choice, perRow int) [][]Choice {
	var rows [][]Choice
	var row []Choice
	for _, o := range options {
		row = append(row, Choice{Label: o.Label, Data: prefix + ":" + o.Data})
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func cityKeyboard() [][]string {
	var rows [][]string
	var row []string
	for _, c := range listings.Cities {
		row = append(row, c.Label)
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func dealTypeChoices() [][]Choice {
	return [][]Choice{{
		{Label: listings.DealRent.Label(), Data: prefixType + ":" + string(listings.DealRent)},
		{Label: listings.DealBuy.Label(), Data: prefixType + ":" + string(listings.DealBuy)},
	}}
}

func roomsChoices() [][]Choice {
	row := make([]Choice, 0, len(listings.RoomOptions))
	for _, r := range listings.RoomOptions {
		row = append(row, Choice{Label: string(r), Data: prefixRooms + ":" + string(r)})
	}
	return [][]Choice{row}
}

func adminMenu() Reply {
	return Reply{
		Text: msgAdminMenu,
		Choices: [][]Choice{
			{{Label: msgAdminAddButton, Data: prefixAdmin + ":" + adminActionAdd}},
			{{Label: msgAdminListButton, Data: prefixAdmin + ":" + adminActionList}},
		},
	}
}

// ListingCard renders a listing the way it is shown to users and broadcast.
func ListingCard(l *listings.Listing) string {
	return fmt.Sprintf("<b>%s</b>\n\n%s\n\nСсылка на объявление: %s",
		html.EscapeString(l.Title), html.EscapeString(l.Description), html.EscapeString(l.Link))
}

func adminListingCard(l *listings.Listing) string {
	city := l.CityCode
	if c, ok := listings.CityByCode(l.CityCode); ok {
		city = c.Label
	}
	return fmt.Sprintf("<b>%s</b>\n%s · %s · %s\n%s",
		html.EscapeString(l.Title), city, l.DealType.Label(), l.Rooms, html.EscapeString(l.Link))
}

// DeriveTitle takes the first line of a description, capped at 80 runes.
func DeriveTitle(description string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(description), "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return DefaultTitle
	}
	if runes := []rune(first); len(runes) > maxTitleRunes {
		first = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return first
}
