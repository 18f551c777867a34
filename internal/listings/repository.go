package listings

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for listing storage
type Repository interface {
	Create(ctx context.Context, req *CreateListingRequest) (*Listing, error)
	GetByID(ctx context.Context, id string) (*Listing, error)
	FindRecent(ctx context.Context, filter Filter, limit int) ([]*Listing, error)
	Deactivate(ctx context.Context, id string) error
}

// InMemoryRepository keeps listings in process memory. Insertion order doubles
// as creation order so equal timestamps still sort deterministically.
type InMemoryRepository struct {
	mu    sync.RWMutex
	order []*Listing
	byID  map[string]*Listing
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID: make(map[string]*Listing),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Seed inserts listings as-is, keeping their ids. Existing ids are skipped.
func (r *InMemoryRepository) Seed(items ...Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range items {
		item := items[i]
		if _, exists := r.byID[item.ID]; exists {
			continue
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = r.now()
		}
		r.order = append(r.order, &item)
		r.byID[item.ID] = &item
	}
}

// Create creates a new listing in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateListingRequest) (*Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	listing := &Listing{
		ID:          uuid.New().String(),
		CityCode:    req.CityCode,
		DealType:    req.DealType,
		Rooms:       req.Rooms,
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		Active:      true,
		CreatedAt:   r.now(),
	}

	r.mu.Lock()
	r.order = append(r.order, listing)
	r.byID[listing.ID] = listing
	r.mu.Unlock()

	out := *listing
	return &out, nil
}

// GetByID retrieves a listing by ID, including deactivated ones
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.byID[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	out := *listing
	return &out, nil
}

// FindRecent returns active listings matching filter, newest first.
func (r *InMemoryRepository) FindRecent(ctx context.Context, filter Filter, limit int) ([]*Listing, error) {
	if limit <= 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Listing, 0, limit)
	for i := len(r.order) - 1; i >= 0 && len(result) < limit; i-- {
		l := r.order[i]
		if !l.Active || !filter.Matches(l) {
			continue
		}
		out := *l
		result = append(result, &out)
	}
	return result, nil
}

// Deactivate marks a listing inactive. Deactivating twice is not an error.
func (r *InMemoryRepository) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.byID[id]
	if !ok {
		return ErrListingNotFound
	}
	listing.Active = false
	return nil
}
