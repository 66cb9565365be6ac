// Package secret keeps the commitment material (weapon and salt) a player
// needs to reveal a move. Losing it after the commitment transaction is sent
// makes the stake unrecoverable, so every write is durable before it returns.
package secret

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"go.dedis.ch/kyber/v4/util/random"
	_ "modernc.org/sqlite"

	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/secret/migrations"
	"github.com/luca-patrignani/rpsx/storage/sqlitemigrate"
)

// ErrNotFound is returned when no record exists for a game.
var ErrNotFound = errors.New("secret not found")

const (
	pendingSlot = "pending"
	gamePrefix  = "game:"
)

// Record is the plaintext of a commitment. GameName is empty while the
// record waits for the ledger to confirm the session; Proposed then holds
// the name the session was requested under.
type Record struct {
	GameName string
	Proposed string
	Weapon   rpsls.Weapon
	Salt     *big.Int
}

// Pending reports whether the record is not yet linked to a session.
func (r Record) Pending() bool {
	return r.GameName == ""
}

// saltSpace bounds salts to the contract's uint256.
var saltSpace = new(big.Int).Lsh(big.NewInt(1), 256)

// NewSalt draws a uniformly random 256-bit salt.
func NewSalt() *big.Int {
	return random.Int(saltSpace, random.New())
}

// Store persists records in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (or creates) the store at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// StagePending writes the commitment for the game proposed as gameName,
// which the ledger has not confirmed yet. It replaces any previous pending
// record.
func (s *Store) StagePending(ctx context.Context, gameName string, weapon rpsls.Weapon, salt *big.Int) error {
	if strings.TrimSpace(gameName) == "" {
		return fmt.Errorf("game name is required")
	}
	if !weapon.Valid() {
		return fmt.Errorf("invalid weapon %d", weapon)
	}
	if salt == nil || salt.Sign() < 0 {
		return fmt.Errorf("salt must be a non-negative integer")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO secrets (slot, proposed, weapon, salt, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET proposed = excluded.proposed, weapon = excluded.weapon,
		 salt = excluded.salt, updated_at = excluded.updated_at`,
		pendingSlot, gameName, int(weapon), salt.String(), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("stage pending secret: %w", err)
	}
	return nil
}

// Pending returns the pending record, if any.
func (s *Store) Pending(ctx context.Context) (Record, bool, error) {
	rec, err := s.get(ctx, s.sqlDB, pendingSlot)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// LinkPendingTo moves the pending record under gameName. It reports false,
// without error, when nothing is pending for gameName: the challenge was then
// created from another device and this one holds no secret for it. A record
// proposed under another name stays pending.
func (s *Store) LinkPendingTo(ctx context.Context, gameName string) (bool, error) {
	if strings.TrimSpace(gameName) == "" {
		return false, fmt.Errorf("game name is required")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin link: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := s.get(ctx, tx, pendingSlot)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.Proposed != "" && rec.Proposed != gameName {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO secrets (slot, weapon, salt, updated_at) VALUES (?, ?, ?, ?)`,
		gamePrefix+gameName, int(rec.Weapon), rec.Salt.String(), s.now().UTC().UnixMilli(),
	); err != nil {
		return false, fmt.Errorf("link secret to %q: %w", gameName, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM secrets WHERE slot = ?`, pendingSlot); err != nil {
		return false, fmt.Errorf("clear pending secret: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit link: %w", err)
	}
	return true, nil
}

// Consume returns the record for gameName without deleting it; the caller
// forgets it once the reveal is confirmed.
func (s *Store) Consume(ctx context.Context, gameName string) (Record, error) {
	return s.get(ctx, s.sqlDB, gamePrefix+gameName)
}

// Forget deletes the record for gameName. Forgetting twice is not an error.
func (s *Store) Forget(ctx context.Context, gameName string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM secrets WHERE slot = ?`, gamePrefix+gameName); err != nil {
		return fmt.Errorf("forget secret %q: %w", gameName, err)
	}
	return nil
}

// DiscardPending drops the pending record after its commitment transaction
// was rejected.
func (s *Store) DiscardPending(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM secrets WHERE slot = ?`, pendingSlot); err != nil {
		return fmt.Errorf("discard pending secret: %w", err)
	}
	return nil
}

// List returns every stored record, pending first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT slot, proposed, weapon, salt FROM secrets ORDER BY slot <> ?, slot`, pendingSlot)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var slot string
		var rec Record
		if err := scanRecord(rows, &slot, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) get(ctx context.Context, q queryer, slot string) (Record, error) {
	row := q.QueryRowContext(ctx, `SELECT slot, proposed, weapon, salt FROM secrets WHERE slot = ?`, slot)
	var got string
	var rec Record
	err := scanRecord(row, &got, &rec)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func scanRecord(sc scanner, slot *string, rec *Record) error {
	var weapon int
	var salt string
	if err := sc.Scan(slot, &rec.Proposed, &weapon, &salt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scan secret: %w", err)
	}
	value, ok := new(big.Int).SetString(salt, 10)
	if !ok {
		return fmt.Errorf("secret %q has a corrupt salt", *slot)
	}
	rec.GameName = strings.TrimPrefix(*slot, gamePrefix)
	if *slot == pendingSlot {
		rec.GameName = ""
	} else {
		rec.Proposed = ""
	}
	rec.Weapon = rpsls.Weapon(weapon)
	rec.Salt = value
	return nil
}
