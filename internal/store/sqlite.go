package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/theirongolddev/rfcst/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLite stores plant inputs in a local database file.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the store database at the given path.
func Open(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the store database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Save replaces the stored inputs of in.PlantID in one transaction.
// Non-finite cells are not persisted and load back as zero.
func (s *SQLite) Save(ctx context.Context, in model.PlantInputs) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deletePlant(ctx, tx, in.PlantID); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO plants (plant_id, reforecast_month, updated_at) VALUES (?, ?, ?)",
		in.PlantID, in.ReforecastMonth, now,
	); err != nil {
		return fmt.Errorf("saving plant: %w", err)
	}

	insertFormat, err := tx.PrepareContext(ctx, "INSERT INTO formats (plant_id, position, name) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = insertFormat.Close() }()

	insertValue, err := tx.PrepareContext(ctx, `INSERT INTO format_values
		(plant_id, position, series, kpi, month, value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = insertValue.Close() }()

	put := func(pos int, series, kpi string, month int, v float64) error {
		if model.Finite(v) != v {
			return nil
		}
		_, err := insertValue.ExecContext(ctx, in.PlantID, pos, series, kpi, month, v)
		return err
	}

	for pos, f := range in.Formats {
		if _, err := insertFormat.ExecContext(ctx, in.PlantID, pos, f.Name); err != nil {
			return fmt.Errorf("saving format %q: %w", f.Name, err)
		}
		for m, v := range f.Volume {
			if err := put(pos, seriesVolume, "", m, v); err != nil {
				return err
			}
		}
		for _, kpi := range sortedKeys(f.Coefficients) {
			c := f.Coefficients[kpi]
			for m, v := range c.Monthly {
				if err := put(pos, seriesCoefficient, kpi, m, v); err != nil {
					return err
				}
			}
			if err := put(pos, seriesCoefficient, kpi, fyMonth, c.Annual); err != nil {
				return err
			}
		}
		for _, kpi := range sortedKeys(f.Overrides) {
			for m, v := range f.Overrides[kpi] {
				if err := put(pos, seriesOverride, kpi, m, v); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

// Load reads the stored inputs of a plant.
func (s *SQLite) Load(ctx context.Context, plantID string) (model.PlantInputs, error) {
	in := model.PlantInputs{PlantID: plantID}

	err := s.db.QueryRowContext(ctx,
		"SELECT reforecast_month FROM plants WHERE plant_id = ?", plantID,
	).Scan(&in.ReforecastMonth)
	if errors.Is(err, sql.ErrNoRows) {
		return in, fmt.Errorf("%s: %w", plantID, ErrNotFound)
	}
	if err != nil {
		return in, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT position, name FROM formats WHERE plant_id = ? ORDER BY position", plantID)
	if err != nil {
		return in, err
	}
	byPos := make(map[int]int)
	for rows.Next() {
		var pos int
		var name string
		if err := rows.Scan(&pos, &name); err != nil {
			_ = rows.Close()
			return in, err
		}
		byPos[pos] = len(in.Formats)
		in.Formats = append(in.Formats, model.FormatInputs{
			Name:         name,
			Coefficients: make(map[string]model.Coefficients),
			Overrides:    make(map[string]model.Series),
		})
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return in, err
	}

	vals, err := s.db.QueryContext(ctx,
		"SELECT position, series, kpi, month, value FROM format_values WHERE plant_id = ?", plantID)
	if err != nil {
		return in, err
	}
	defer func() { _ = vals.Close() }()

	for vals.Next() {
		var pos, month int
		var series, kpi string
		var v float64
		if err := vals.Scan(&pos, &series, &kpi, &month, &v); err != nil {
			return in, err
		}
		i, ok := byPos[pos]
		if !ok || month < 0 || month > fyMonth {
			continue
		}
		f := &in.Formats[i]
		switch series {
		case seriesVolume:
			if month < fyMonth {
				f.Volume[month] = v
			}
		case seriesCoefficient:
			c := f.Coefficients[kpi]
			if month == fyMonth {
				c.Annual = v
			} else {
				c.Monthly[month] = v
			}
			f.Coefficients[kpi] = c
		case seriesOverride:
			if month < fyMonth {
				o := f.Overrides[kpi]
				o[month] = v
				f.Overrides[kpi] = o
			}
		}
	}
	return in, vals.Err()
}

// Delete removes a plant's stored inputs. Deleting an unknown plant is not
// an error.
func (s *SQLite) Delete(ctx context.Context, plantID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deletePlant(ctx, tx, plantID); err != nil {
		return err
	}
	return tx.Commit()
}

func deletePlant(ctx context.Context, tx *sql.Tx, plantID string) error {
	for _, q := range []string{
		"DELETE FROM format_values WHERE plant_id = ?",
		"DELETE FROM formats WHERE plant_id = ?",
		"DELETE FROM plants WHERE plant_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, plantID); err != nil {
			return err
		}
	}
	return nil
}

// List returns a summary of every saved plant, ordered by plant ID.
func (s *SQLite) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT p.plant_id, p.reforecast_month, p.updated_at,
		(SELECT COUNT(*) FROM formats f WHERE f.plant_id = p.plant_id)
		FROM plants p ORDER BY p.plant_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var updated string
		if err := rows.Scan(&sum.PlantID, &sum.ReforecastMonth, &updated, &sum.Formats); err != nil {
			return nil, err
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
