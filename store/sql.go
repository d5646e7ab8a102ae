package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		uid TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL,
		google_sub TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trade_lanes (
		id TEXT PRIMARY KEY,
		owner_uid TEXT NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		category TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trade_lanes_owner ON trade_lanes (owner_uid, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_users_google_sub ON users (google_sub)`,
}

// SQLStore implements UserStore and TradeLaneStore on database/sql.
// Queries are written with ? placeholders and rebound for postgres.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

// Open connects to the configured database and applies the schema
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*SQLStore, error) {
	var driver string
	switch cfg.Driver {
	case "sqlite", "":
		driver = "sqlite"
	case "postgres":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s db: %w", driver, err)
	}

	s := &SQLStore{db: db, postgres: driver == "postgres"}
	if !s.postgres {
		// a single writer avoids SQLITE_BUSY under concurrent handlers
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				slog.Warn("failed to apply sqlite pragma", "pragma", pragma, "error", err)
			}
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s db: %w", driver, err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("database ready", "driver", driver)
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind turns ? placeholders into $n for postgres
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) CreateUser(ctx context.Context, acct *Account) error {
	acct.Email = normalizeEmail(acct.Email)
	if _, err := s.UserByEmail(ctx, acct.Email); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if acct.UID == "" {
		acct.UID = uuid.New().String()
	}
	now := time.Now()
	acct.CreatedAt, acct.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO users (uid, email, display_name, photo_url, password_hash, provider, google_sub, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		acct.UID, acct.Email, acct.DisplayName, acct.PhotoURL, acct.PasswordHash,
		acct.Provider, acct.GoogleSub, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailInUse
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

const userColumns = `uid, email, display_name, photo_url, password_hash, provider, google_sub, created_at, updated_at`

func (s *SQLStore) UserByID(ctx context.Context, uid string) (*Account, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE uid = ?`, uid)
}

func (s *SQLStore) UserByEmail(ctx context.Context, email string) (*Account, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
}

func (s *SQLStore) UserByGoogleSub(ctx context.Context, sub string) (*Account, error) {
	if sub == "" {
		return nil, ErrNotFound
	}
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE google_sub = ?`, sub)
}

func (s *SQLStore) queryUser(ctx context.Context, query string, arg any) (*Account, error) {
	var (
		a                  Account
		created, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(query), arg).Scan(
		&a.UID, &a.Email, &a.DisplayName, &a.PhotoURL, &a.PasswordHash,
		&a.Provider, &a.GoogleSub, &created, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	a.CreatedAt = time.Unix(0, created)
	a.UpdatedAt = time.Unix(0, updatedAt)
	return &a, nil
}

func (s *SQLStore) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) (*Account, error) {
	acct, err := s.UserByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if upd.DisplayName != nil {
		acct.DisplayName = *upd.DisplayName
	}
	if upd.PhotoURL != nil {
		acct.PhotoURL = *upd.PhotoURL
	}
	acct.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx, s.rebind(`
		UPDATE users SET display_name = ?, photo_url = ?, updated_at = ? WHERE uid = ?`),
		acct.DisplayName, acct.PhotoURL, acct.UpdatedAt.UnixNano(), uid,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return acct, nil
}

func (s *SQLStore) AddLane(ctx context.Context, uid string, lane model.TradeLane) (model.TradeLane, error) {
	lane.ID = uuid.New().String()
	if lane.CreatedAt.IsZero() {
		lane.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO trade_lanes (id, owner_uid, origin, destination, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		lane.ID, uid, lane.From, lane.To, lane.Category, lane.CreatedAt.UnixNano(),
	)
	if err != nil {
		return model.TradeLane{}, fmt.Errorf("failed to insert trade lane into %s: %w", CollectionPath(uid), err)
	}
	return lane, nil
}

func (s *SQLStore) ListLanes(ctx context.Context, uid string) ([]model.TradeLane, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, origin, destination, category, created_at
		FROM trade_lanes WHERE owner_uid = ?
		ORDER BY created_at, id`), uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", CollectionPath(uid), err)
	}
	defer rows.Close()

	lanes := []model.TradeLane{}
	for rows.Next() {
		var (
			l       model.TradeLane
			created int64
		)
		if err := rows.Scan(&l.ID, &l.From, &l.To, &l.Category, &created); err != nil {
			return nil, fmt.Errorf("failed to scan trade lane: %w", err)
		}
		l.CreatedAt = time.Unix(0, created)
		lanes = append(lanes, l)
	}
	return lanes, rows.Err()
}

func (s *SQLStore) DeleteLane(ctx context.Context, uid, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM trade_lanes WHERE id = ? AND owner_uid = ?`), id, uid)
	if err != nil {
		return fmt.Errorf("failed to delete trade lane: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete trade lane: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
