package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bevute/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the primary store. All queries are scoped to the
// configured owner id.
type SQLiteRepository struct {
	db      *sql.DB
	ownerID string
}

func NewSQLiteRepository(dbPath, ownerID string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, ownerID: ownerID}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListDrinks returns the catalog ordered by the user-defined position.
func (r *SQLiteRepository) ListDrinks(ctx context.Context) ([]core.Drink, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, volume_ml, abv, sort_order, owner_id, created_at
		FROM drinks
		WHERE owner_id = ?
		ORDER BY sort_order, id`, r.ownerID)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	defer rows.Close()

	var drinks []core.Drink
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan drink: %w", err)
		}
		drinks = append(drinks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drinks: %w", err)
	}
	return drinks, nil
}

// GetDrink returns a single drink or core.ErrNotFound.
func (r *SQLiteRepository) GetDrink(ctx context.Context, id int64) (*core.Drink, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, volume_ml, abv, sort_order, owner_id, created_at
		FROM drinks
		WHERE id = ? AND owner_id = ?`, id, r.ownerID)

	d, err := scanDrink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get drink: %w", err)
	}
	return &d, nil
}

// CreateDrink inserts a new drink at the end of the sort order and
// returns its id.
func (r *SQLiteRepository) CreateDrink(ctx context.Context, d core.Drink) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO drinks (name, kind, volume_ml, abv, sort_order, owner_id)
		VALUES (?, ?, ?, ?,
			COALESCE((SELECT MAX(sort_order) + 1 FROM drinks WHERE owner_id = ?), 0),
			?)`,
		d.Name, string(d.Kind), d.VolumeML, d.ABV, r.ownerID, r.ownerID)
	if err != nil {
		return 0, fmt.Errorf("create drink: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("drink insert id: %w", err)
	}

	slog.InfoContext(ctx, "Drink created",
		"id", id,
		"name", d.Name,
		"kind", string(d.Kind),
		"volume_ml", d.VolumeML)

	return id, nil
}

// UpdateDrink rewrites the mutable fields of a drink.
func (r *SQLiteRepository) UpdateDrink(ctx context.Context, d core.Drink) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE drinks
		SET name = ?, kind = ?, volume_ml = ?, abv = ?
		WHERE id = ? AND owner_id = ?`,
		d.Name, string(d.Kind), d.VolumeML, d.ABV, d.ID, r.ownerID)
	if err != nil {
		return fmt.Errorf("update drink: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update drink rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteDrink removes a drink. Its records go with it via the cascade.
func (r *SQLiteRepository) DeleteDrink(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM drinks WHERE id = ? AND owner_id = ?`, id, r.ownerID)
	if err != nil {
		return fmt.Errorf("delete drink: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete drink rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Drink deleted", "id", id)
	return nil
}

// UpdateSortOrders applies a batch of position changes in one transaction.
func (r *SQLiteRepository) UpdateSortOrders(ctx context.Context, updates []core.SortUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sort order tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE drinks SET sort_order = ? WHERE id = ? AND owner_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare sort order update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.SortOrder, u.DrinkID, r.ownerID); err != nil {
			return fmt.Errorf("update sort order for drink %d: %w", u.DrinkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sort orders: %w", err)
	}
	return nil
}

// ListRecords returns records in [from, to] inclusive with their drink
// resolved. Records whose drink was deleted do not survive the cascade,
// so the left join only goes empty during concurrent deletes.
func (r *SQLiteRepository) ListRecords(ctx context.Context, from, to core.Date) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.day, r.drink_id, r.quantity, r.owner_id, r.created_at,
		       d.id, d.name, d.kind, d.volume_ml, d.abv, d.sort_order, d.owner_id, d.created_at
		FROM records r
		LEFT JOIN drinks d ON d.id = r.drink_id
		WHERE r.owner_id = ? AND r.day >= ? AND r.day <= ?
		ORDER BY r.day, r.id`,
		r.ownerID, from.Key(), to.Key())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// DayRecords returns all records for a single day.
func (r *SQLiteRepository) DayRecords(ctx context.Context, day core.Date) ([]core.Record, error) {
	return r.ListRecords(ctx, day, day)
}

// ReplaceDayRecords atomically swaps a day's records for the given set.
// Delete and inserts share one transaction, so a failed save leaves the
// previous day intact. The day is also queued for export.
func (r *SQLiteRepository) ReplaceDayRecords(ctx context.Context, day core.Date, records []core.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE owner_id = ? AND day = ?`, r.ownerID, day.Key()); err != nil {
		return fmt.Errorf("clear day records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (day, drink_id, quantity, owner_id)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, day.Key(), rec.DrinkID, rec.Quantity, r.ownerID); err != nil {
			return fmt.Errorf("insert record for drink %d: %w", rec.DrinkID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO day_exports (day, owner_id, status, attempts, updated_at)
		VALUES (?, ?, 'pending', 0, CURRENT_TIMESTAMP)
		ON CONFLICT(day, owner_id)
		DO UPDATE SET status = 'pending', updated_at = CURRENT_TIMESTAMP`,
		day.Key(), r.ownerID); err != nil {
		return fmt.Errorf("queue day export: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit day replace: %w", err)
	}

	slog.InfoContext(ctx, "Day records replaced",
		"day", day.Key(),
		"records", len(records))

	return nil
}

// PendingExportDay is one queued day waiting to be pushed out.
type PendingExportDay struct {
	Day       core.Date
	Attempts  int
	UpdatedAt time.Time
}

// GetPendingExportDays returns days still waiting for export, oldest first.
func (r *SQLiteRepository) GetPendingExportDays(ctx context.Context, limit int) ([]PendingExportDay, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, attempts, updated_at
		FROM day_exports
		WHERE owner_id = ? AND status = 'pending'
		ORDER BY updated_at
		LIMIT ?`, r.ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export days: %w", err)
	}
	defer rows.Close()

	var pending []PendingExportDay
	for rows.Next() {
		var (
			dayKey    string
			attempts  int
			updatedAt time.Time
		)
		if err := rows.Scan(&dayKey, &attempts, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan pending day: %w", err)
		}
		day, err := core.ParseDate(dayKey)
		if err != nil {
			return nil, fmt.Errorf("parse pending day %q: %w", dayKey, err)
		}
		pending = append(pending, PendingExportDay{Day: day, Attempts: attempts, UpdatedAt: updatedAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending days: %w", err)
	}
	return pending, nil
}

// MarkDayExported marks a day as successfully exported.
func (r *SQLiteRepository) MarkDayExported(ctx context.Context, day core.Date) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE day_exports
		SET status = 'synced', updated_at = CURRENT_TIMESTAMP
		WHERE day = ? AND owner_id = ?`, day.Key(), r.ownerID); err != nil {
		return fmt.Errorf("mark day exported: %w", err)
	}

	slog.InfoContext(ctx, "Day marked as exported", "day", day.Key())
	return nil
}

// MarkDayExportError records a failed export attempt but keeps the day
// pending so the backstop retries it.
func (r *SQLiteRepository) MarkDayExportError(ctx context.Context, day core.Date) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE day_exports
		SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP
		WHERE day = ? AND owner_id = ?`, day.Key(), r.ownerID); err != nil {
		return fmt.Errorf("mark day export error: %w", err)
	}

	slog.WarnContext(ctx, "Day export attempt failed", "day", day.Key())
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrink(row rowScanner) (core.Drink, error) {
	var (
		d    core.Drink
		kind string
	)
	err := row.Scan(&d.ID, &d.Name, &kind, &d.VolumeML, &d.ABV, &d.SortOrder, &d.OwnerID, &d.CreatedAt)
	if err != nil {
		return core.Drink{}, err
	}
	d.Kind = core.DrinkKind(kind)
	return d, nil
}

func collectRecords(rows *sql.Rows) ([]core.Record, error) {
	var records []core.Record
	for rows.Next() {
		var (
			rec      core.Record
			dayKey   string
			drinkID  sql.NullInt64
			name     sql.NullString
			kind     sql.NullString
			volume   sql.NullFloat64
			abv      sql.NullFloat64
			sortOrd  sql.NullInt64
			owner    sql.NullString
			createdA sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &dayKey, &rec.DrinkID, &rec.Quantity, &rec.OwnerID, &rec.CreatedAt,
			&drinkID, &name, &kind, &volume, &abv, &sortOrd, &owner, &createdA); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		day, err := core.ParseDate(dayKey)
		if err != nil {
			return nil, fmt.Errorf("parse record day %q: %w", dayKey, err)
		}
		rec.Date = day

		if drinkID.Valid {
			rec.Drink = &core.Drink{
				ID:        drinkID.Int64,
				Name:      name.String,
				Kind:      core.DrinkKind(kind.String),
				VolumeML:  volume.Float64,
				ABV:       abv.Float64,
				SortOrder: int(sortOrd.Int64),
				OwnerID:   owner.String,
				CreatedAt: createdA.Time,
			}
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
