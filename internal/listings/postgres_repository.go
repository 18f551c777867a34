package listings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores listings in the relational database.
type PostgresRepository struct {
	pool   rowQuerier
	tracer trace.Tracer
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("listings: pgx pool required")
	}
	return newPostgresRepositoryWithExec(pool)
}

func newPostgresRepositoryWithExec(exec rowQuerier) *PostgresRepository {
	if exec == nil {
		panic("listings: exec required")
	}
	return &PostgresRepository{
		pool:   exec,
		tracer: otel.Tracer("rentbot.internal.listings"),
	}
}

const listingColumns = `id, city_code, deal_type, rooms, title, description, link, active, created_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateListingRequest) (*Listing, error) {
	ctx, span := r.tracer.Start(ctx, "listings.create")
	defer span.End()

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
	}
	query := `
		INSERT INTO listings (id, city_code, deal_type, rooms, title, description, link, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		listing.ID,
		listing.CityCode,
		string(listing.DealType),
		string(listing.Rooms),
		listing.Title,
		listing.Description,
		listing.Link,
	).Scan(&listing.CreatedAt); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listings: insert failed: %w", err)
	}
	span.SetAttributes(attribute.String("listing.id", listing.ID))
	return listing, nil
}

// GetByID fetches a listing regardless of its active flag.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	ctx, span := r.tracer.Start(ctx, "listings.get_by_id")
	defer span.End()

	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	listing, err := scanListing(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("listings: select failed: %w", err)
	}
	return listing, nil
}

// FindRecent returns active listings matching filter, newest first.
func (r *PostgresRepository) FindRecent(ctx context.Context, filter Filter, limit int) ([]*Listing, error) {
	ctx, span := r.tracer.Start(ctx, "listings.find_recent")
	defer span.End()

	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE active = TRUE
		  AND ($1 = '' OR city_code = $1)
		  AND ($2 = '' OR deal_type = $2)
		  AND ($3 = '' OR rooms = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, query, filter.CityCode, string(filter.DealType), string(filter.Rooms), limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listings: query failed: %w", err)
	}
	defer rows.Close()

	var result []*Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("listings: scan failed: %w", err)
		}
		result = append(result, listing)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listings: rows failed: %w", err)
	}
	span.SetAttributes(attribute.Int("listings.count", len(result)))
	return result, nil
}

// Deactivate flips the active flag. Rows are never deleted.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "listings.deactivate")
	defer span.End()

	ct, err := r.pool.Exec(ctx, `UPDATE listings SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("listings: deactivate failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrListingNotFound
	}
	return nil
}

func scanListing(row pgx.Row) (*Listing, error) {
	var (
		l        Listing
		dealType string
		rooms    string
	)
	if err := row.Scan(
		&l.ID,
		&l.CityCode,
		&dealType,
		&rooms,
		&l.Title,
		&l.Description,
		&l.Link,
		&l.Active,
		&l.CreatedAt,
	); err != nil {
		return nil, err
	}
	l.DealType = DealType(dealType)
	l.Rooms = Rooms(rooms)
	return &l, nil
}
