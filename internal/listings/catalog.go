package listings

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

const (
	// UserLimit caps the offers shown to a user after filter selection.
	UserLimit = 5
	// AdminLimit caps the admin management view.
	AdminLimit = 20
)

// Catalog is the query facade the dialogue engine talks to.
type Catalog struct {
	repo   Repository
	logger *logging.Logger
}

// NewCatalog wraps a repository.
func NewCatalog(repo Repository, logger *logging.Logger) *Catalog {
	if repo == nil {
		panic("listings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Catalog{repo: repo, logger: logger}
}

// FindRecent returns up to limit active listings for the filter triple, newest first.
func (c *Catalog) FindRecent(ctx context.Context, cityCode string, dealType DealType, rooms Rooms, limit int) ([]*Listing, error) {
	if limit <= 0 {
		limit = UserLimit
	}
	items, err := c.repo.FindRecent(ctx, Filter{CityCode: cityCode, DealType: dealType, Rooms: rooms}, limit)
	if err != nil {
		return nil, fmt.Errorf("listings: find recent: %w", err)
	}
	return items, nil
}

// FindActive returns up to limit active listings of any kind, newest first.
func (c *Catalog) FindActive(ctx context.Context, limit int) ([]*Listing, error) {
	if limit <= 0 {
		limit = AdminLimit
	}
	items, err := c.repo.FindRecent(ctx, Filter{}, limit)
	if err != nil {
		return nil, fmt.Errorf("listings: find active: %w", err)
	}
	return items, nil
}

// FindByID returns the listing or ErrListingNotFound.
func (c *Catalog) FindByID(ctx context.Context, id string) (*Listing, error) {
	return c.repo.GetByID(ctx, id)
}

// Lookup resolves id without failing. Store errors count as a miss.
func (c *Catalog) Lookup(ctx context.Context, id string) (*Listing, bool) {
	if id == "" {
		return nil, false
	}
	listing, err := c.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrListingNotFound) {
			c.logger.Warn("listing lookup failed", "error", err, "listing_id", id)
		}
		return nil, false
	}
	return listing, true
}

// Create persists a new active listing and returns it with its assigned id.
func (c *Catalog) Create(ctx context.Context, req *CreateListingRequest) (*Listing, error) {
	listing, err := c.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("listings: create: %w", err)
	}
	c.logger.Info("listing created", "listing_id", listing.ID, "city", listing.CityCode, "deal_type", listing.DealType, "rooms", listing.Rooms)
	return listing, nil
}

// Deactivate soft-deletes a listing.
func (c *Catalog) Deactivate(ctx context.Context, id string) error {
	if err := c.repo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("listings: deactivate %s: %w", id, err)
	}
	c.logger.Info("listing deactivated", "listing_id", id)
	return nil
}
