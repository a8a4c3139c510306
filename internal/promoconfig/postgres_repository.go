package promoconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

const singletonRow = 1

// PostgresRepository stores the PromoConfig singleton as a single-row
// table plus an audit table. It is used in place of the Mongo repository
// when a Postgres URL is configured; it does not mirror or sync with
// Mongo.
type PostgresRepository struct {
	db         *sql.DB
	table      string
	auditTable string
}

func NewPostgresRepository(connStr, table, auditTable string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRepository{db: db, table: table, auditTable: auditTable}
	if err := r.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return r, nil
}

func (r *PostgresRepository) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			row_id                    INTEGER PRIMARY KEY DEFAULT 1 CHECK (row_id = 1),
			referral_enabled          BOOLEAN NOT NULL,
			referral_reward_atomic    BIGINT NOT NULL,
			referral_required_trips  INTEGER NOT NULL,
			streak_enabled            BOOLEAN NOT NULL,
			streak_bonus_atomic       BIGINT NOT NULL,
			streak_required_streak    INTEGER NOT NULL,
			gold_enabled              BOOLEAN NOT NULL,
			gold_required_rides       INTEGER NOT NULL,
			gold_window_days          INTEGER NOT NULL,
			gold_duration_days        INTEGER NOT NULL,
			gold_discount_percent     INTEGER NOT NULL,
			updated_at                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_by                TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			section     TEXT NOT NULL,
			actor_id    TEXT NOT NULL,
			old_value   JSONB NOT NULL,
			new_value   JSONB NOT NULL,
			at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`, r.table, r.auditTable)

	_, err := r.db.Exec(query)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context) (PromoConfig, error) {
	query := fmt.Sprintf(`
		SELECT referral_enabled, referral_reward_atomic, referral_required_trips,
		       streak_enabled, streak_bonus_atomic, streak_required_streak,
		       gold_enabled, gold_required_rides, gold_window_days, gold_duration_days,
		       gold_discount_percent, updated_at, updated_by
		FROM %s WHERE row_id = $1
	`, r.table)

	var cfg PromoConfig
	var referralAtomic, streakAtomic int64
	err := r.db.QueryRowContext(ctx, query, singletonRow).Scan(
		&cfg.Referral.Enabled, &referralAtomic, &cfg.Referral.RequiredTrips,
		&cfg.Streak.Enabled, &streakAtomic, &cfg.Streak.RequiredStreak,
		&cfg.GoldStatus.Enabled, &cfg.GoldStatus.RequiredRides, &cfg.GoldStatus.WindowDays,
		&cfg.GoldStatus.DurationDays, &cfg.GoldStatus.DiscountPercent,
		&cfg.UpdatedAt, &cfg.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return PromoConfig{}, ErrNotFound
	}
	if err != nil {
		return PromoConfig{}, fmt.Errorf("query promo config: %w", err)
	}

	cfg.Referral.RewardAmount = money.New(money.NGN, referralAtomic)
	cfg.Streak.BonusAmount = money.New(money.NGN, streakAtomic)
	return cfg, nil
}

func (r *PostgresRepository) Save(ctx context.Context, cfg PromoConfig) error {
	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			row_id, referral_enabled, referral_reward_atomic, referral_required_trips,
			streak_enabled, streak_bonus_atomic, streak_required_streak,
			gold_enabled, gold_required_rides, gold_window_days, gold_duration_days,
			gold_discount_percent, updated_at, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (row_id) DO UPDATE SET
			referral_enabled = EXCLUDED.referral_enabled,
			referral_reward_atomic = EXCLUDED.referral_reward_atomic,
			referral_required_trips = EXCLUDED.referral_required_trips,
			streak_enabled = EXCLUDED.streak_enabled,
			streak_bonus_atomic = EXCLUDED.streak_bonus_atomic,
			streak_required_streak = EXCLUDED.streak_required_streak,
			gold_enabled = EXCLUDED.gold_enabled,
			gold_required_rides = EXCLUDED.gold_required_rides,
			gold_window_days = EXCLUDED.gold_window_days,
			gold_duration_days = EXCLUDED.gold_duration_days,
			gold_discount_percent = EXCLUDED.gold_discount_percent,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		singletonRow, cfg.Referral.Enabled, cfg.Referral.RewardAmount.Atomic, cfg.Referral.RequiredTrips,
		cfg.Streak.Enabled, cfg.Streak.BonusAmount.Atomic, cfg.Streak.RequiredStreak,
		cfg.GoldStatus.Enabled, cfg.GoldStatus.RequiredRides, cfg.GoldStatus.WindowDays, cfg.GoldStatus.DurationDays,
		cfg.GoldStatus.DiscountPercent, cfg.UpdatedAt, cfg.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("upsert promo config: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AppendAudit(ctx context.Context, rec AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}

	oldValue, err := json.Marshal(rec.OldValue)
	if err != nil {
		return fmt.Errorf("marshal old value: %w", err)
	}
	newValue, err := json.Marshal(rec.NewValue)
	if err != nil {
		return fmt.Errorf("marshal new value: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, section, actor_id, old_value, new_value, at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.auditTable)

	_, err = r.db.ExecContext(ctx, query, rec.ID, rec.Section, rec.ActorID, oldValue, newValue, rec.At)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListAudit(ctx context.Context) ([]AuditRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, section, actor_id, old_value, new_value, at
		FROM %s ORDER BY at DESC
	`, r.auditTable)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var result []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var oldValue, newValue []byte
		if err := rows.Scan(&rec.ID, &rec.Section, &rec.ActorID, &oldValue, &newValue, &rec.At); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if err := json.Unmarshal(oldValue, &rec.OldValue); err != nil {
			return nil, fmt.Errorf("unmarshal old value: %w", err)
		}
		if err := json.Unmarshal(newValue, &rec.NewValue); err != nil {
			return nil, fmt.Errorf("unmarshal new value: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
