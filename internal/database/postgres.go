package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"car-rental-catalog/internal/metrics"
	"car-rental-catalog/internal/models"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Postgres stores each collection as a table of JSONB documents:
//
//	id text primary key, doc jsonb, created_at timestamptz
//
// Equality filters use jsonb containment (doc @> filter), which the GIN index
// created by EnsureSchema serves.
type Postgres struct {
	Conn *sql.DB
}

// ConnectPostgres opens and verifies a Postgres connection.
func ConnectPostgres(ctx context.Context, dsn string, log *zap.Logger) (*Postgres, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withRead(ctx)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database: postgres ping: %w", err)
	}
	log.Info("postgres connected")
	return &Postgres{Conn: conn}, nil
}

// NewPostgres wraps an open *sql.DB.
func NewPostgres(conn *sql.DB) *Postgres {
	return &Postgres{Conn: conn}
}

// EnsureSchema creates the collection tables and their indexes if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	for _, table := range []string{carsCollection, brandsCollection, categoriesCollection} {
		stmts := []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id         text PRIMARY KEY,
				doc        jsonb NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_doc_gin ON %s USING gin (doc jsonb_path_ops)`, table, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_created_at ON %s (created_at)`, table, table),
		}
		for _, stmt := range stmts {
			if _, err := p.Conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("database: ensure schema for %s: %w", table, err)
			}
		}
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := withRead(ctx)
	defer cancel()
	return p.Conn.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.Conn.Close()
}

// ── Cars ───────────────────────────────────────────────────────────────────

func (p *Postgres) GetCar(ctx context.Context, id string) (models.Car, error) {
	return pgGet[models.Car](ctx, p.Conn, carsCollection, "get_car", id)
}

func (p *Postgres) ListCars(ctx context.Context, q models.CarQuery) ([]models.Car, error) {
	return pgList[models.Car](ctx, p.Conn, carsCollection, "list_cars", q.Equals(), "created_at, id", q.Limit)
}

func (p *Postgres) CountCars(ctx context.Context, q models.CarQuery) (int64, error) {
	return pgCount(ctx, p.Conn, carsCollection, "count_cars", q.Equals())
}

func (p *Postgres) InsertCar(ctx context.Context, c *models.Car) error {
	c.ID = newID()
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	return pgInsert(ctx, p.Conn, carsCollection, "insert_car", c.ID, c)
}

func (p *Postgres) UpdateCar(ctx context.Context, id string, set map[string]any) (models.Car, error) {
	return pgUpdate[models.Car](ctx, p.Conn, carsCollection, "update_car", id, set)
}

func (p *Postgres) DeleteCar(ctx context.Context, id string) error {
	return pgDelete(ctx, p.Conn, carsCollection, "delete_car", id)
}

// ── Brands ─────────────────────────────────────────────────────────────────

func (p *Postgres) GetBrand(ctx context.Context, id string) (models.Brand, error) {
	return pgGet[models.Brand](ctx, p.Conn, brandsCollection, "get_brand", id)
}

func (p *Postgres) ListBrands(ctx context.Context, q models.BrandQuery) ([]models.Brand, error) {
	return pgList[models.Brand](ctx, p.Conn, brandsCollection, "list_brands", q.Equals(), "doc->>'name', created_at", q.Limit)
}

func (p *Postgres) CountBrands(ctx context.Context, q models.BrandQuery) (int64, error) {
	return pgCount(ctx, p.Conn, brandsCollection, "count_brands", q.Equals())
}

func (p *Postgres) InsertBrand(ctx context.Context, b *models.Brand) error {
	b.ID = newID()
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	return pgInsert(ctx, p.Conn, brandsCollection, "insert_brand", b.ID, b)
}

func (p *Postgres) UpdateBrand(ctx context.Context, id string, set map[string]any) (models.Brand, error) {
	return pgUpdate[models.Brand](ctx, p.Conn, brandsCollection, "update_brand", id, set)
}

func (p *Postgres) DeleteBrand(ctx context.Context, id string) error {
	return pgDelete(ctx, p.Conn, brandsCollection, "delete_brand", id)
}

// ── Categories ─────────────────────────────────────────────────────────────

func (p *Postgres) GetCategory(ctx context.Context, id string) (models.Category, error) {
	return pgGet[models.Category](ctx, p.Conn, categoriesCollection, "get_category", id)
}

func (p *Postgres) ListCategories(ctx context.Context, q models.CategoryQuery) ([]models.Category, error) {
	return pgList[models.Category](ctx, p.Conn, categoriesCollection, "list_categories", q.Equals(), "doc->>'name', created_at", q.Limit)
}

func (p *Postgres) CountCategories(ctx context.Context, q models.CategoryQuery) (int64, error) {
	return pgCount(ctx, p.Conn, categoriesCollection, "count_categories", q.Equals())
}

func (p *Postgres) InsertCategory(ctx context.Context, c *models.Category) error {
	c.ID = newID()
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	return pgInsert(ctx, p.Conn, categoriesCollection, "insert_category", c.ID, c)
}

func (p *Postgres) UpdateCategory(ctx context.Context, id string, set map[string]any) (models.Category, error) {
	return pgUpdate[models.Category](ctx, p.Conn, categoriesCollection, "update_category", id, set)
}

func (p *Postgres) DeleteCategory(ctx context.Context, id string) error {
	return pgDelete(ctx, p.Conn, categoriesCollection, "delete_category", id)
}

// ------------------------------------------------------------------------
// generic table helpers; table and order are package constants, never input

func pgGet[T any](ctx context.Context, db *sql.DB, table, op, id string) (T, error) {
	ctx, cancel := withRead(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	var doc T
	var raw []byte
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", table), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, err
	}
	err = json.Unmarshal(raw, &doc)
	return doc, err
}

func pgList[T any](ctx context.Context, db *sql.DB, table, op string, eq map[string]any, order string, limit int) ([]T, error) {
	ctx, cancel := withRead(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	filter, err := json.Marshal(eq)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT doc FROM %s WHERE doc @> $1::jsonb ORDER BY %s", table, order)
	args := []any{string(filter)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("database: decode %s row: %w", table, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func pgCount(ctx context.Context, db *sql.DB, table, op string, eq map[string]any) (int64, error) {
	ctx, cancel := withRead(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	filter, err := json.Marshal(eq)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s WHERE doc @> $1::jsonb", table),
		string(filter),
	).Scan(&n)
	return n, err
}

func pgInsert(ctx context.Context, db *sql.DB, table, op, id string, doc any) error {
	ctx, cancel := withWrite(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, doc, created_at) VALUES ($1, $2::jsonb, now())", table),
		id, string(raw),
	)
	return err
}

// pgUpdate merges set into the stored document (jsonb ||) with a fresh
// updatedAt and returns the merged document.
func pgUpdate[T any](ctx context.Context, db *sql.DB, table, op, id string, set map[string]any) (T, error) {
	ctx, cancel := withWrite(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	var doc T
	fields := make(map[string]any, len(set)+1)
	for k, v := range set {
		if k == "id" || k == "_id" || k == "createdAt" {
			continue
		}
		fields[k] = v
	}
	fields["updatedAt"] = now()
	patch, err := json.Marshal(fields)
	if err != nil {
		return doc, err
	}

	var raw []byte
	err = db.QueryRowContext(ctx,
		fmt.Sprintf("UPDATE %s SET doc = doc || $2::jsonb WHERE id = $1 RETURNING doc", table),
		id, string(patch),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, err
	}
	err = json.Unmarshal(raw, &doc)
	return doc, err
}

func pgDelete(ctx context.Context, db *sql.DB, table, op, id string) error {
	ctx, cancel := withWrite(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	res, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
