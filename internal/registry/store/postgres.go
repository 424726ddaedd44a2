package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
	"inheritx/pkg/platform/sentinel"
	txcontext "inheritx/pkg/platform/tx"
)

// Schema creates the registry tables. UInt columns are NUMERIC(78,0), wide
// enough for any 256-bit value.
const Schema = `
CREATE TABLE IF NOT EXISTS registries (
	id              UUID PRIMARY KEY,
	owner           BYTEA NOT NULL,
	will_pointer    TEXT NOT NULL DEFAULT '',
	death_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
	confirmed_at    TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS beneficiaries (
	registry_id UUID NOT NULL REFERENCES registries (id) ON DELETE CASCADE,
	recipient   BYTEA NOT NULL,
	variant     SMALLINT NOT NULL,
	share       NUMERIC(78,0) NOT NULL DEFAULT 0,
	asset_id    NUMERIC(78,0) NOT NULL DEFAULT 0,
	amount      NUMERIC(78,0) NOT NULL DEFAULT 0,
	verified    BOOLEAN NOT NULL DEFAULT FALSE,
	added_at    TIMESTAMPTZ NOT NULL,
	verified_at TIMESTAMPTZ,
	PRIMARY KEY (registry_id, recipient)
);
`

const uniqueViolation = "23505"

// Migrate applies Schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply registry schema: %w", err)
	}
	return nil
}

// PostgresStore persists registries in PostgreSQL.
type PostgresStore struct {
	db  *sql.DB
	cfg config
}

func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	return &PostgresStore{db: db, cfg: newConfig(opts)}
}

func (s *PostgresStore) querier(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

func (s *PostgresStore) Create(ctx context.Context, reg *models.Registry) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		_, err := s.querier(ctx).ExecContext(ctx, `
			INSERT INTO registries (id, owner, will_pointer, death_confirmed, confirmed_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			uuid.UUID(reg.ID),
			reg.Owner.Bytes(),
			reg.WillPointer,
			reg.DeathConfirmed,
			nullTime(reg.ConfirmedAt),
			reg.CreatedAt,
			reg.UpdatedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert registry: %w", err)
		}
		return s.syncBeneficiaries(ctx, reg.ID, nil, reg.Beneficiaries)
	})
}

// FindByID reads the registry row and its beneficiaries in one repeatable
// read transaction, so both statements see the same committed state.
func (s *PostgresStore) FindByID(ctx context.Context, registryID id.RegistryID) (*models.Registry, error) {
	var reg *models.Registry
	err := s.runTx(ctx, readSnapshot, func(ctx context.Context) error {
		var err error
		reg, err = s.load(ctx, registryID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Execute locks the registry row for the duration of validate and mutate.
// Concurrent callers block on the row lock, so the pair is serialized.
func (s *PostgresStore) Execute(ctx context.Context, registryID id.RegistryID, validate func(*models.Registry) error, mutate func(*models.Registry)) (*models.Registry, error) {
	ctx, cancel := s.cfg.withTimeout(ctx)
	defer cancel()

	var result *models.Registry
	err := s.inTx(ctx, func(ctx context.Context) error {
		reg, err := s.load(ctx, registryID, true)
		if err != nil {
			return err
		}
		before := reg.Clone()
		if err := validate(reg); err != nil {
			return err
		}
		mutate(reg)

		_, err = s.querier(ctx).ExecContext(ctx, `
			UPDATE registries
			SET will_pointer = $2, death_confirmed = $3, confirmed_at = $4, updated_at = $5
			WHERE id = $1
		`,
			uuid.UUID(registryID),
			reg.WillPointer,
			reg.DeathConfirmed,
			nullTime(reg.ConfirmedAt),
			reg.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update registry: %w", err)
		}
		if err := s.syncBeneficiaries(ctx, registryID, before.Beneficiaries, reg.Beneficiaries); err != nil {
			return err
		}
		result = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var readSnapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.runTx(ctx, nil, fn)
}

func (s *PostgresStore) runTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	return txcontext.RunWithOptions(ctx, s.db, opts, fn, func(err error) error {
		return fmt.Errorf("%w: begin transaction: %v", sentinel.ErrUnavailable, err)
	})
}

func (s *PostgresStore) load(ctx context.Context, registryID id.RegistryID, forUpdate bool) (*models.Registry, error) {
	query := `
		SELECT owner, will_pointer, death_confirmed, confirmed_at, created_at, updated_at
		FROM registries
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		owner       []byte
		confirmedAt sql.NullTime
	)
	reg := &models.Registry{ID: registryID, Beneficiaries: make(map[id.Address]*models.Beneficiary)}
	err := s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(registryID)).Scan(
		&owner,
		&reg.WillPointer,
		&reg.DeathConfirmed,
		&confirmedAt,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registry: %w", err)
	}
	reg.Owner = id.BytesToAddress(owner)
	if confirmedAt.Valid {
		t := confirmedAt.Time
		reg.ConfirmedAt = &t
	}

	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT recipient, variant, share::text, asset_id::text, amount::text, verified, added_at, verified_at
		FROM beneficiaries
		WHERE registry_id = $1
	`, uuid.UUID(registryID))
	if err != nil {
		return nil, fmt.Errorf("query beneficiaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recipient              []byte
			variant                int16
			share, assetID, amount string
			verified               bool
			addedAt                time.Time
			verifiedAt             sql.NullTime
		)
		if err := rows.Scan(&recipient, &variant, &share, &assetID, &amount, &verified, &addedAt, &verifiedAt); err != nil {
			return nil, fmt.Errorf("scan beneficiary: %w", err)
		}
		addr := id.BytesToAddress(recipient)
		b, err := buildBeneficiary(addr, models.Variant(variant), share, assetID, amount)
		if err != nil {
			return nil, err
		}
		b.Verified = verified
		b.AddedAt = addedAt
		if verifiedAt.Valid {
			t := verifiedAt.Time
			b.VerifiedAt = &t
		}
		reg.Beneficiaries[addr] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate beneficiaries: %w", err)
	}
	return reg, nil
}

// syncBeneficiaries writes the difference between before and after: removed
// recipients are deleted in one statement, new or changed ones are upserted.
func (s *PostgresStore) syncBeneficiaries(ctx context.Context, registryID id.RegistryID, before, after map[id.Address]*models.Beneficiary) error {
	var removed [][]byte
	for addr := range before {
		if _, ok := after[addr]; !ok {
			removed = append(removed, addr.Bytes())
		}
	}
	if len(removed) > 0 {
		_, err := s.querier(ctx).ExecContext(ctx, `
			DELETE FROM beneficiaries
			WHERE registry_id = $1 AND recipient = ANY($2)
		`, uuid.UUID(registryID), pq.Array(removed))
		if err != nil {
			return fmt.Errorf("delete beneficiaries: %w", err)
		}
	}

	for addr, b := range after {
		if prev, ok := before[addr]; ok && sameBeneficiary(prev, b) {
			continue
		}
		share, assetID, amount := b.Share(), b.TokenID(), b.Amount()
		_, err := s.querier(ctx).ExecContext(ctx, `
			INSERT INTO beneficiaries (registry_id, recipient, variant, share, asset_id, amount, verified, added_at, verified_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (registry_id, recipient) DO UPDATE SET
				variant = EXCLUDED.variant,
				share = EXCLUDED.share,
				asset_id = EXCLUDED.asset_id,
				amount = EXCLUDED.amount,
				verified = EXCLUDED.verified,
				added_at = EXCLUDED.added_at,
				verified_at = EXCLUDED.verified_at
		`,
			uuid.UUID(registryID),
			addr.Bytes(),
			int16(b.Variant()),
			share.Dec(),
			assetID.Dec(),
			amount.Dec(),
			b.Verified,
			b.AddedAt,
			nullTime(b.VerifiedAt),
		)
		if err != nil {
			return fmt.Errorf("upsert beneficiary: %w", err)
		}
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
