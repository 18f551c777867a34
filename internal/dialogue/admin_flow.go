package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/rental-intake-bot/internal/listings"
	"github.com/wolfman30/rental-intake-bot/internal/session"
)

// handleAdminAction serves the stateless admin buttons. Non-admin callers
// get nothing back and no state changes.
func (e *Engine) handleAdminAction(ctx context.Context, ev Event, action string) ([]Reply, string, error) {
	if !e.isAdmin(ev) {
		return nil, OutcomeUnauthorized, nil
	}
	key := ev.Key()

	verb, id, _ := strings.Cut(action, ":")
	switch verb {
	case adminActionAdd:
		if err := e.store.Clear(ctx, key); err != nil {
			return nil, "", err
		}
		if err := e.store.SetStep(ctx, key, session.StepAdminCity); err != nil {
			return nil, "", err
		}
		return []Reply{{Text: msgAdminCity, Keyboard: cityKeyboard()}}, OutcomeHandled, nil
	case adminActionList:
		return handled(e.listActive(ctx))
	case adminActionDel:
		if id == "" {
			return nil, OutcomeIgnored, nil
		}
		return handled(e.deactivate(ctx, ev, id))
	}
	return nil, OutcomeIgnored, nil
}

func (e *Engine) listActive(ctx context.Context) ([]Reply, error) {
	active, err := e.catalog.FindActive(ctx, listings.AdminLimit)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return []Reply{{Text: msgAdminNoListings}}, nil
	}
	replies := make([]Reply, 0, len(active))
	for _, l := range active {
		replies = append(replies, Reply{
			Text: adminListingCard(l),
			HTML: true,
			Choices: [][]Choice{{{
				Label: msgAdminDeactivate,
				Data:  prefixAdmin + ":" + adminActionDel + ":" + l.ID,
			}}},
		})
	}
	return replies, nil
}

func (e *Engine) deactivate(ctx context.Context, ev Event, id string) ([]Reply, error) {
	if err := e.catalog.Deactivate(ctx, id); err != nil {
		if errors.Is(err, listings.ErrListingNotFound) {
			return []Reply{{Text: msgAdminNotFound}}, nil
		}
		e.logger.Error("dialogue: deactivate failed", "error", err, "listing_id", id)
		return []Reply{{Text: msgAdminDelFailed}}, nil
	}

	var replies []Reply
	if ev.MessageID != 0 {
		replies = append(replies, Reply{EditMessageID: ev.MessageID})
	}
	return append(replies, Reply{Text: msgAdminDeactivated}), nil
}

// handleAdminAdd covers the listing creation wizard.
func (e *Engine) handleAdminAdd(ctx context.Context, ev Event, st session.State) ([]Reply, string, error) {
	key := ev.Key()
	prefix, value := ev.choice()
	text := strings.TrimSpace(ev.Text)

	switch st.Step {
	case session.StepAdminCity:
		if ev.Kind != KindText {
			break
		}
		city, ok := listings.CityByLabel(text)
		if !ok {
			return []Reply{{Text: msgAdminCityRetry, Keyboard: cityKeyboard()}}, OutcomeHandled, nil
		}
		if err := e.advance(ctx, key, map[string]string{FieldCityCode: city.Code}, session.StepAdminDealType); err != nil {
			return nil, "", err
		}
		// Telegram carries one markup per message, so the city keyboard is
		// removed before the inline deal type prompt.
		return []Reply{
			{Text: fmt.Sprintf(msgAdminCityChosen, city.Label), RemoveKeyboard: true},
			{Text: msgAdminDealType, Choices: dealTypeChoices()},
		}, OutcomeHandled, nil

	case session.StepAdminDealType:
		if ev.Kind != KindChoice || prefix != prefixType || !listings.DealType(value).Valid() {
			break
		}
		if err := e.advance(ctx, key, map[string]string{FieldDealType: value}, session.StepAdminRooms); err != nil {
			return nil, "", err
		}
		return []Reply{{Text: msgChooseRooms, Choices: roomsChoices()}}, OutcomeHandled, nil

	case session.StepAdminRooms:
		if ev.Kind != KindChoice || prefix != prefixRooms || !listings.Rooms(value).Valid() {
			break
		}
		if err := e.advance(ctx, key, map[string]string{FieldRooms: value}, session.StepAdminDescription); err != nil {
			return nil, "", err
		}
		return []Reply{{Text: msgAdminDescription}}, OutcomeHandled, nil

	case session.StepAdminDescription:
		if ev.Kind != KindText {
			break
		}
		if err := e.advance(ctx, key, map[string]string{FieldDescription: text}, session.StepAdminLink); err != nil {
			return nil, "", err
		}
		return []Reply{{Text: msgAdminLink}}, OutcomeHandled, nil

	case session.StepAdminLink:
		if ev.Kind != KindText {
			break
		}
		return handled(e.createListing(ctx, key, st, text))
	}
	return nil, OutcomeIgnored, nil
}

// createListing persists the wizard result. A failed write aborts the wizard.
func (e *Engine) createListing(ctx context.Context, key string, st session.State, link string) ([]Reply, error) {
	logger := e.logger.ForSession(key)
	description := st.Field(FieldDescription)

	listing, err := e.catalog.Create(ctx, &listings.CreateListingRequest{
		CityCode:    st.Field(FieldCityCode),
		DealType:    listings.DealType(st.Field(FieldDealType)),
		Rooms:       listings.Rooms(st.Field(FieldRooms)),
		Title:       DeriveTitle(description),
		Description: description,
		Link:        link,
	})
	if err != nil {
		logger.Error("dialogue: listing create failed", "error", err)
		e.metrics.ObserveListingCreated("failed")
		if clearErr := e.store.Clear(ctx, key); clearErr != nil {
			logger.Error("dialogue: failed to clear admin session", "error", clearErr)
		}
		return []Reply{{Text: msgAdminSaveFailed}}, nil
	}
	e.metrics.ObserveListingCreated("ok")

	if e.broadcaster != nil && e.cfg.ChannelID != 0 {
		if err := e.broadcaster.Broadcast(ctx, e.cfg.ChannelID, ListingCard(listing)); err != nil {
			logger.Warn("dialogue: listing broadcast failed", "error", err, "listing_id", listing.ID)
		}
	}

	if err := e.store.Clear(ctx, key); err != nil {
		return nil, err
	}
	return []Reply{
		{Text: fmt.Sprintf(msgAdminSaved, listing.Title)},
		adminMenu(),
	}, nil
}
