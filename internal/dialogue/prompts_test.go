package dialogue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/rental-intake-bot/internal/listings"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"first line", "Уютная квартира\nс видом на море", "Уютная квартира"},
		{"single line", "Студия", "Студия"},
		{"empty", "", DefaultTitle},
		{"whitespace", "  \n ", DefaultTitle},
		{"crlf", "Пентхаус\r\nтерраса", "Пентхаус"},
		{"long", strings.Repeat("я", 100), strings.Repeat("я", 80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.description))
		})
	}
}

func TestChoiceRows(t *testing.T) {
	rows := choiceRows(prefixPeople, peopleOptions, 2)
	assert.Equal(t, [][]Choice{
		{{Label: "1", Data: "people:1"}, {Label: "2", Data: "people:2"}},
		{{Label: "3–4", Data: "people:3-4"}, {Label: "5+", Data: "people:5+"}},
	}, rows)

	income := choiceRows(prefixIncome, incomeOptions, 3)
	assert.Len(t, income, 1)
	assert.Equal(t, "income:autonomo", income[0][2].Data)
}

func TestListingCardEscapesHTML(t *testing.T) {
	card := ListingCard(&listings.Listing{Title: "A <b>&", Description: "d", Link: "https://x?a=1&b=2"})
	assert.Equal(t, "<b>A &lt;b&gt;&amp;</b>\n\nd\n\nСсылка на объявление: https://x?a=1&amp;b=2", card)
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "42", Event{UserID: 42}.Key())
	assert.Equal(t, "custom", Event{UserID: 42, SessionKey: "custom"}.Key())
}
