package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/rental-intake-bot/internal/listings"
	"github.com/wolfman30/rental-intake-bot/internal/notify"
	"github.com/wolfman30/rental-intake-bot/internal/session"
)

// handleBrowse covers idle and the filter selection steps.
func (e *Engine) handleBrowse(ctx context.Context, ev Event, st session.State) ([]Reply, string, error) {
	key := ev.Key()

	switch ev.Kind {
	case KindText:
		// a city label restarts filter selection from any browse step
		city, ok := listings.CityByLabel(ev.Text)
		if !ok {
			return nil, OutcomeIgnored, nil
		}
		return handled(e.onCity(ctx, key, city))

	case KindChoice:
		prefix, value := ev.choice()
		switch {
		case prefix == prefixType && st.Step == session.StepAwaitDealType:
			deal := listings.DealType(value)
			if !deal.Valid() {
				return nil, OutcomeIgnored, nil
			}
			if err := e.advance(ctx, key, map[string]string{FieldDealType: value}, session.StepAwaitRooms); err != nil {
				return nil, "", err
			}
			return []Reply{{Text: msgChooseRooms, Choices: roomsChoices()}}, OutcomeHandled, nil

		case prefix == prefixRooms && st.Step == session.StepAwaitRooms:
			rooms := listings.Rooms(value)
			if !rooms.Valid() {
				return nil, OutcomeIgnored, nil
			}
			return handled(e.onRooms(ctx, key, st, rooms))

		case prefix == prefixContact && (st.Step == session.StepReviewing || st.Step.IsIdle()):
			if strings.TrimSpace(value) == "" {
				return nil, OutcomeIgnored, nil
			}
			if err := e.advance(ctx, key, map[string]string{FieldListingID: value}, session.StepPeople); err != nil {
				return nil, "", err
			}
			return []Reply{{Text: msgPeople, Choices: choiceRows(prefixPeople, peopleOptions, 2)}}, OutcomeHandled, nil
		}
	}
	return nil, OutcomeIgnored, nil
}

func (e *Engine) onCity(ctx context.Context, key string, city listings.City) ([]Reply, error) {
	if err := e.advance(ctx, key, map[string]string{FieldCityCode: city.Code}, session.StepAwaitDealType); err != nil {
		return nil, err
	}
	return []Reply{{Text: fmt.Sprintf(msgCityChosen, city.Label), Choices: dealTypeChoices()}}, nil
}

func (e *Engine) onRooms(ctx context.Context, key string, st session.State, rooms listings.Rooms) ([]Reply, error) {
	if err := e.store.Merge(ctx, key, map[string]string{FieldRooms: string(rooms)}); err != nil {
		return nil, err
	}

	found, err := e.catalog.FindRecent(ctx, st.Field(FieldCityCode), listings.DealType(st.Field(FieldDealType)), rooms, listings.UserLimit)
	if err != nil {
		e.logger.ForSession(key).Error("dialogue: listing query failed", "error", err)
		return []Reply{{Text: msgListingsFailed}}, nil
	}
	if len(found) == 0 {
		if err := e.store.Clear(ctx, key); err != nil {
			return nil, err
		}
		return []Reply{{Text: msgNoListings}}, nil
	}

	if err := e.store.SetStep(ctx, key, session.StepReviewing); err != nil {
		return nil, err
	}
	replies := make([]Reply, 0, len(found))
	for _, l := range found {
		replies = append(replies, Reply{
			Text:    ListingCard(l),
			HTML:    true,
			Choices: [][]Choice{{{Label: msgApplyButton, Data: prefixContact + ":" + l.ID}}},
		})
	}
	return replies, nil
}

// handleApplying covers the questionnaire steps.
func (e *Engine) handleApplying(ctx context.Context, ev Event, st session.State) ([]Reply, string, error) {
	key := ev.Key()
	prefix, value := ev.choice()
	text := strings.TrimSpace(ev.Text)

	step := func(fields map[string]string, next session.Step, reply Reply) ([]Reply, string, error) {
		if err := e.advance(ctx, key, fields, next); err != nil {
			return nil, "", err
		}
		return []Reply{reply}, OutcomeHandled, nil
	}

	switch st.Step {
	case session.StepPeople:
		if ev.Kind == KindChoice && prefix == prefixPeople && validOption(peopleOptions, value) {
			return step(map[string]string{FieldPeople: value}, session.StepNationality, Reply{Text: msgNationality})
		}
	case session.StepNationality:
		if ev.Kind == KindText {
			return step(map[string]string{FieldNationality: text}, session.StepPets,
				Reply{Text: msgPets, Choices: choiceRows(prefixPets, petsOptions, 2)})
		}
	case session.StepPets:
		if ev.Kind == KindChoice && prefix == prefixPets && validOption(petsOptions, value) {
			return step(map[string]string{FieldPets: value}, session.StepIncome,
				Reply{Text: msgIncome, Choices: choiceRows(prefixIncome, incomeOptions, 3)})
		}
	case session.StepIncome:
		if ev.Kind == KindChoice && prefix == prefixIncome && validOption(incomeOptions, value) {
			return step(map[string]string{FieldIncome: value}, session.StepPeriod,
				Reply{Text: msgPeriod, Choices: choiceRows(prefixPeriod, periodOptions, 2)})
		}
	case session.StepPeriod:
		if ev.Kind == KindChoice && prefix == prefixPeriod && validOption(periodOptions, value) {
			return step(map[string]string{FieldPeriod: value}, session.StepViewing, Reply{Text: msgViewing})
		}
	case session.StepViewing:
		if ev.Kind == KindText {
			return step(map[string]string{FieldViewing: text}, session.StepContact, Reply{
				Text:           msgContact,
				Keyboard:       [][]string{{msgContactButton}},
				RequestContact: true,
			})
		}
	case session.StepContact:
		switch ev.Kind {
		case KindContact:
			return handled(e.complete(ctx, ev, st, strings.TrimSpace(ev.Phone)))
		case KindText:
			return handled(e.complete(ctx, ev, st, text))
		}
	}
	return nil, OutcomeIgnored, nil
}

// complete is the terminal step: dispatch the application, acknowledge and clear.
func (e *Engine) complete(ctx context.Context, ev Event, st session.State, phone string) ([]Reply, error) {
	key := ev.Key()
	logger := e.logger.ForSession(key)

	if err := e.store.Merge(ctx, key, map[string]string{FieldPhone: phone}); err != nil {
		return nil, err
	}

	app := notify.Application{
		ListingID:   st.Field(FieldListingID),
		People:      st.Field(FieldPeople),
		Nationality: st.Field(FieldNationality),
		Pets:        st.Field(FieldPets),
		Income:      st.Field(FieldIncome),
		Period:      st.Field(FieldPeriod),
		Viewing:     st.Field(FieldViewing),
		Phone:       phone,
		User:        notify.UserIdentity{ID: ev.UserID, Username: ev.Username},
		SubmittedAt: e.now(),
	}
	if listing, ok := e.catalog.Lookup(ctx, app.ListingID); ok && listing.Active {
		app.ListingTitle = listing.Title
		app.ListingLink = listing.Link
	} else {
		logger.Warn("dialogue: application references a missing listing", "listing_id", app.ListingID)
		app = app.WithMissingListing()
	}

	outcomes := e.notifier.Dispatch(ctx, app)
	e.metrics.ObserveApplication()
	logger.Info("dialogue: application submitted", "listing_id", app.ListingID, "recipients", len(outcomes))

	if err := e.store.Clear(ctx, key); err != nil {
		logger.Error("dialogue: failed to clear session after submit", "error", err)
	}
	return []Reply{{Text: msgSubmitted, RemoveKeyboard: true}}, nil
}
