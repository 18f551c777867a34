package listings

import (
	"strings"
	"time"
)

// DealType distinguishes rentals from sales.
type DealType string

const (
	DealRent DealType = "rent"
	DealBuy  DealType = "buy"
)

// Valid reports whether d is a supported deal type.
func (d DealType) Valid() bool {
	return d == DealRent || d == DealBuy
}

// Label returns the user-facing name of the deal type.
func (d DealType) Label() string {
	switch d {
	case DealRent:
		return "Аренда"
	case DealBuy:
		return "Покупка"
	default:
		return string(d)
	}
}

// Rooms is the room category of a listing.
type Rooms string

const (
	RoomsOne       Rooms = "1"
	RoomsTwo       Rooms = "2"
	RoomsThreePlus Rooms = "3+"
)

// RoomOptions lists the room categories in display order.
var RoomOptions = []Rooms{RoomsOne, RoomsTwo, RoomsThreePlus}

// Valid reports whether r is a supported room category.
func (r Rooms) Valid() bool {
	return r == RoomsOne || r == RoomsTwo || r == RoomsThreePlus
}

// City pairs a stored city code with the label shown on the keyboard.
type City struct {
	Code  string
	Label string
}

// Cities is the fixed city menu in display order.
var Cities = []City{
	{Code: "benidorm", Label: "Бенидорм"},
	{Code: "alicante", Label: "Аликанте"},
	{Code: "calpe", Label: "Кальпе"},
	{Code: "torrevieja", Label: "Торревьеха"},
	{Code: "commercial", Label: "Коммерческое"},
}

// CityByLabel resolves a keyboard label to its city. Surrounding whitespace is ignored.
func CityByLabel(label string) (City, bool) {
	label = strings.TrimSpace(label)
	for _, c := range Cities {
		if c.Label == label {
			return c, true
		}
	}
	return City{}, false
}

// CityByCode resolves a stored city code.
func CityByCode(code string) (City, bool) {
	for _, c := range Cities {
		if c.Code == code {
			return c, true
		}
	}
	return City{}, false
}

// Listing is a property offer shown to users.
type Listing struct {
	ID          string    `json:"id"`
	CityCode    string    `json:"city_code"`
	DealType    DealType  `json:"deal_type"`
	Rooms       Rooms     `json:"rooms"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows FindRecent. Empty fields match any value.
type Filter struct {
	CityCode string
	DealType DealType
	Rooms    Rooms
}

// Matches reports whether l satisfies the filter, ignoring the active flag.
func (f Filter) Matches(l *Listing) bool {
	if f.CityCode != "" && l.CityCode != f.CityCode {
		return false
	}
	if f.DealType != "" && l.DealType != f.DealType {
		return false
	}
	if f.Rooms != "" && l.Rooms != f.Rooms {
		return false
	}
	return true
}

// CreateListingRequest carries the fields collected by the admin flow.
type CreateListingRequest struct {
	CityCode    string
	DealType    DealType
	Rooms       Rooms
	Title       string
	Description string
	Link        string
}

// Validate validates the create listing request
func (r *CreateListingRequest) Validate() error {
	if _, ok := CityByCode(r.CityCode); !ok {
		return ErrInvalidCity
	}
	if !r.DealType.Valid() {
		return ErrInvalidDealType
	}
	if !r.Rooms.Valid() {
		return ErrInvalidRooms
	}
	return nil
}

// SampleListings are the demo offers loaded into the in-memory store when seeding is enabled.
func SampleListings() []Listing {
	return []Listing{
		{
			ID:          "ben_rent_1_1",
			CityCode:    "benidorm",
			DealType:    DealRent,
			Rooms:       RoomsOne,
			Title:       "Бенидорм, 1 спальня, 600€/мес",
			Description: "Район Ринкон де Лойкс, 10 минут до моря, кондиционер, Wi-Fi.",
			Link:        "https://t.me/your_benidorm_group/1",
			Active:      true,
		},
		{
			ID:          "ben_rent_1_2",
			CityCode:    "benidorm",
			DealType:    DealRent,
			Rooms:       RoomsOne,
			Title:       "Бенидорм, 1 спальня, 650€/мес",
			Description: "Центр, рядом со всеми сервисами, возможна регистрация.",
			Link:        "https://t.me/your_benidorm_group/2",
			Active:      true,
		},
	}
}
