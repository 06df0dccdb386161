// Package product provides the product catalog: purchasable items with
// a unique title and an integer cost.
package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	minTitleLength = 2
	maxTitleLength = 100
	minCost        = 1
)

var (
	// ErrProductNotFound is returned when a product ID does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrTitleExists is returned when a product title is already taken.
	ErrTitleExists = errors.New("product title already exists")

	// ErrInvalidTitle is returned when a title fails validation.
	ErrInvalidTitle = errors.New("invalid product title")

	// ErrInvalidCost is returned when a cost is below the minimum.
	ErrInvalidCost = errors.New("invalid product cost")
)

// Product is a purchasable catalog item.
type Product struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Cost      int       `json:"cost"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks a product before persistence.
func (p *Product) Validate() error {
	title := strings.TrimSpace(p.Title)
	if len(title) < minTitleLength {
		return fmt.Errorf("%w: title must be at least %d characters", ErrInvalidTitle, minTitleLength)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTitle, maxTitleLength)
	}
	if p.Cost < minCost {
		return fmt.Errorf("%w: cost must be at least %d", ErrInvalidCost, minCost)
	}
	return nil
}

// Repository defines the interface for product persistence operations.
type Repository interface {
	Create(ctx context.Context, product *Product) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed product repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new product. Generates an ID when none is set.
func (r *SQLiteRepository) Create(ctx context.Context, product *Product) error {
	if product.ID == "" {
		product.ID = "prod-" + uuid.NewString()[:8]
	}
	const query = `INSERT INTO products (id, title, cost) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, product.ID, product.Title, product.Cost)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTitleExists
		}
		return fmt.Errorf("inserting product %s: %w", product.ID, err)
	}
	return nil
}

// List returns all products ordered by title.
func (r *SQLiteRepository) List(ctx context.Context) ([]Product, error) {
	const query = `SELECT id, title, cost, created_at, updated_at
		FROM products ORDER BY title`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProductFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}
	return products, nil
}

// Get returns a single product by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Product, error) {
	const query = `SELECT id, title, cost, created_at, updated_at
		FROM products WHERE id = ?`
	product, err := scanProductFrom(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("scanning product: %w", err)
	}
	return product, nil
}

// Update updates an existing product record.
func (r *SQLiteRepository) Update(ctx context.Context, product *Product) error {
	const query = `UPDATE products SET title = ?, cost = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, product.Title, product.Cost, product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTitleExists
		}
		return fmt.Errorf("updating product %s: %w", product.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes a single product by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProductFrom(s scanner) (*Product, error) {
	var p Product
	var createdAt, updatedAt string

	if err := s.Scan(&p.ID, &p.Title, &p.Cost, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
