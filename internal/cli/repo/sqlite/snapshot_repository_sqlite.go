// Package sqlite — локальный кэш снимков на SQLite (modernc.org/sqlite).
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"ShoeKeeper/internal/cli/repo"
	"ShoeKeeper/internal/shoe"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SnapshotRepositorySQLite хранит последний снимок в файле БД пользователя.
type SnapshotRepositorySQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ repo.SnapshotRepository = (*SnapshotRepositorySQLite)(nil)

var ownerRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateOwner проверяет, что идентификатор годится как имя каталога.
func ValidateOwner(owner string) error {
	if owner == "" {
		return errors.New("owner is required")
	}
	if !ownerRe.MatchString(owner) || owner == "." || owner == ".." {
		return fmt.Errorf("invalid owner: %q", owner)
	}
	return nil
}

// OpenForUser открывает (и создаёт при необходимости) файл БД пользователя под base
// и применяет миграции. Вторым значением возвращается путь к БД.
func OpenForUser(base, owner string) (*SnapshotRepositorySQLite, string, error) {
	if err := ValidateOwner(owner); err != nil {
		return nil, "", err
	}
	dir := filepath.Join(base, owner)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", err
	}
	dbPath := filepath.Join(dir, "client.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, "", err
	}
	r := &SnapshotRepositorySQLite{db: db, now: time.Now}
	if err := r.Migrate(); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return r, dbPath, nil
}

// Close закрывает соединение с БД.
func (r *SnapshotRepositorySQLite) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Migrate гарантирует наличие необходимых таблиц/индексов.
func (r *SnapshotRepositorySQLite) Migrate() error {
	_, err := r.db.Exec(initialDDL())
	return err
}

func (r *SnapshotRepositorySQLite) SaveSnapshot(owner string, records []shoe.Record) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM shoes WHERE owner_id = ?`, owner); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO shoes(
        owner_id, position, id, title, price, category, image_ref, is_favorite, created_at
    ) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		if rec.OwnerID != owner {
			continue
		}
		fav := 0
		if rec.IsFavorite {
			fav = 1
		}
		if _, err := stmt.Exec(owner, i, rec.ID, rec.Title, rec.Price.String(), string(rec.Category),
			rec.ImageRef, fav, rec.CreatedAt.UTC().UnixNano()); err != nil {
			return fmt.Errorf("insert %s: %w", rec.ID, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO snapshots(owner_id, synced_at) VALUES(?, ?)
        ON CONFLICT(owner_id) DO UPDATE SET synced_at = excluded.synced_at`,
		owner, r.now().UTC().UnixNano()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SnapshotRepositorySQLite) LoadSnapshot(owner string) ([]shoe.Record, time.Time, error) {
	var syncedAt time.Time
	var nanos int64
	err := r.db.QueryRow(`SELECT synced_at FROM snapshots WHERE owner_id = ?`, owner).Scan(&nanos)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return []shoe.Record{}, time.Time{}, nil
	case err != nil:
		return nil, time.Time{}, err
	}
	syncedAt = time.Unix(0, nanos).UTC()

	rows, err := r.db.Query(`SELECT id, title, price, category, image_ref, is_favorite, created_at
        FROM shoes WHERE owner_id = ? ORDER BY position`, owner)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	res := []shoe.Record{}
	for rows.Next() {
		var (
			rec     shoe.Record
			price   string
			cat     string
			favInt  int
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &price, &cat, &rec.ImageRef, &favInt, &created); err != nil {
			return nil, time.Time{}, err
		}
		rec.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("bad price for %s: %w", rec.ID, err)
		}
		rec.OwnerID = owner
		rec.Category = shoe.Category(cat)
		rec.IsFavorite = favInt != 0
		rec.CreatedAt = time.Unix(0, created).UTC()
		res = append(res, rec)
	}
	return res, syncedAt, rows.Err()
}
