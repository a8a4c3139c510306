package payout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRepository is the relational backend for rider_payouts, used
// in place of the Mongo repository when a Postgres URL is configured (it
// does not mirror or sync with Mongo), with the order snapshots kept as
// a JSONB column rather than a normalized
// child table since they are never queried independently of their parent
// payout.
type PostgresRepository struct {
	db    *sql.DB
	table string
}

func NewPostgresRepository(connStr, table string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRepository{db: db, table: table}
	if err := r.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return r, nil
}

func (r *PostgresRepository) createTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id                      TEXT PRIMARY KEY,
			rider_id                TEXT NOT NULL,
			week_start              TIMESTAMPTZ NOT NULL,
			week_end                TIMESTAMPTZ NOT NULL,
			orders                  JSONB NOT NULL,
			total_gross_atomic      BIGINT NOT NULL,
			total_commission_atomic BIGINT NOT NULL,
			total_rider_net_atomic  BIGINT NOT NULL,
			order_count             INTEGER NOT NULL,
			status                  TEXT NOT NULL,
			paid_at                 TIMESTAMPTZ,
			marked_paid_by          TEXT NOT NULL DEFAULT '',
			payment_proof_url       TEXT NOT NULL DEFAULT '',
			payment_reference_code  TEXT NOT NULL UNIQUE,
			paystack_payment        JSONB,
			rewards_used_atomic     BIGINT NOT NULL DEFAULT 0,
			created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (rider_id, week_start)
		);
	`, r.table)
	_, err := r.db.Exec(query)
	return err
}

func (r *PostgresRepository) GetByRiderWeek(ctx context.Context, riderID string, weekStart time.Time) (RiderPayout, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE rider_id = $1 AND week_start = $2`, payoutColumns, r.table)
	return r.scanRow(r.db.QueryRowContext(ctx, query, riderID, weekStart))
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (RiderPayout, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, payoutColumns, r.table)
	return r.scanRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByReferenceCode(ctx context.Context, code string) (RiderPayout, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE payment_reference_code = $1`, payoutColumns, r.table)
	return r.scanRow(r.db.QueryRowContext(ctx, query, code))
}

const payoutColumns = `
	id, rider_id, week_start, week_end, orders,
	total_gross_atomic, total_commission_atomic, total_rider_net_atomic, order_count,
	status, paid_at, marked_paid_by, payment_proof_url, payment_reference_code,
	paystack_payment, rewards_used_atomic, created_at, updated_at
`

func (r *PostgresRepository) scanRow(row *sql.Row) (RiderPayout, error) {
	var p RiderPayout
	var ordersJSON, paystackJSON []byte
	var grossAtomic, commissionAtomic, riderNetAtomic, rewardsAtomic int64
	var markedPaidBy sql.NullString
	err := row.Scan(
		&p.ID, &p.RiderID, &p.WeekStart, &p.WeekEnd, &ordersJSON,
		&grossAtomic, &commissionAtomic, &riderNetAtomic, &p.Totals.Count,
		&p.Status, &p.PaidAt, &markedPaidBy, &p.PaymentProofURL, &p.PaymentReferenceCode,
		&paystackJSON, &rewardsAtomic, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return RiderPayout{}, ErrNotFound
	}
	if err != nil {
		return RiderPayout{}, fmt.Errorf("scan rider payout: %w", err)
	}

	if err := json.Unmarshal(ordersJSON, &p.Orders); err != nil {
		return RiderPayout{}, fmt.Errorf("unmarshal orders: %w", err)
	}
	if len(paystackJSON) > 0 {
		if err := json.Unmarshal(paystackJSON, &p.PaystackPayment); err != nil {
			return RiderPayout{}, fmt.Errorf("unmarshal paystack payment: %w", err)
		}
	}
	p.MarkedPaidBy = MarkedPaidBy(markedPaidBy.String)
	p.Totals = recomputeTotals(p.Orders)
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p RiderPayout) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	ordersJSON, paystackJSON, err := marshalPayout(p)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, rider_id, week_start, week_end, orders,
			total_gross_atomic, total_commission_atomic, total_rider_net_atomic, order_count,
			status, paid_at, marked_paid_by, payment_proof_url, payment_reference_code,
			paystack_payment, rewards_used_atomic, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`, r.table)

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.RiderID, p.WeekStart, p.WeekEnd, ordersJSON,
		p.Totals.Gross.Atomic, p.Totals.Commission.Atomic, p.Totals.RiderNet.Atomic, p.Totals.Count,
		p.Status, p.PaidAt, string(p.MarkedPaidBy), p.PaymentProofURL, p.PaymentReferenceCode,
		paystackJSON, p.RewardsUsed.Atomic, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert rider payout: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p RiderPayout) error {
	p.UpdatedAt = time.Now()

	ordersJSON, paystackJSON, err := marshalPayout(p)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			orders = $1, total_gross_atomic = $2, total_commission_atomic = $3,
			total_rider_net_atomic = $4, order_count = $5, status = $6, paid_at = $7,
			marked_paid_by = $8, payment_proof_url = $9, payment_reference_code = $10,
			paystack_payment = $11, rewards_used_atomic = $12, updated_at = $13
		WHERE id = $14
	`, r.table)

	res, err := r.db.ExecContext(ctx, query,
		ordersJSON, p.Totals.Gross.Atomic, p.Totals.Commission.Atomic,
		p.Totals.RiderNet.Atomic, p.Totals.Count, p.Status, p.PaidAt,
		string(p.MarkedPaidBy), p.PaymentProofURL, p.PaymentReferenceCode,
		paystackJSON, p.RewardsUsed.Atomic, p.UpdatedAt, p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrReferenceCodeTaken
		}
		return fmt.Errorf("update rider payout: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ExistsReferenceCode(ctx context.Context, code string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE payment_reference_code = $1`, r.table)
	var count int
	if err := r.db.QueryRowContext(ctx, query, code).Scan(&count); err != nil {
		return false, fmt.Errorf("count rider payouts by reference code: %w", err)
	}
	return count > 0, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]RiderPayout, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE 1=1`, payoutColumns, r.table)
	var args []interface{}
	argN := 1

	if filter.RiderID != "" {
		query += fmt.Sprintf(" AND rider_id = $%d", argN)
		args = append(args, filter.RiderID)
		argN++
	}
	if filter.WeekStart != nil {
		query += fmt.Sprintf(" AND week_start = $%d", argN)
		args = append(args, *filter.WeekStart)
		argN++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argN)
		args = append(args, filter.Status)
		argN++
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rider payouts: %w", err)
	}
	defer rows.Close()

	var out []RiderPayout
	for rows.Next() {
		var p RiderPayout
		var ordersJSON, paystackJSON []byte
		var markedPaidBy sql.NullString
		if err := rows.Scan(
			&p.ID, &p.RiderID, &p.WeekStart, &p.WeekEnd, &ordersJSON,
			&p.Totals.Gross.Atomic, &p.Totals.Commission.Atomic, &p.Totals.RiderNet.Atomic, &p.Totals.Count,
			&p.Status, &p.PaidAt, &markedPaidBy, &p.PaymentProofURL, &p.PaymentReferenceCode,
			&paystackJSON, &p.RewardsUsed.Atomic, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rider payout row: %w", err)
		}
		if err := json.Unmarshal(ordersJSON, &p.Orders); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		if len(paystackJSON) > 0 {
			if err := json.Unmarshal(paystackJSON, &p.PaystackPayment); err != nil {
				return nil, fmt.Errorf("unmarshal paystack payment: %w", err)
			}
		}
		p.MarkedPaidBy = MarkedPaidBy(markedPaidBy.String)
		p.Totals = recomputeTotals(p.Orders)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func marshalPayout(p RiderPayout) (ordersJSON, paystackJSON []byte, err error) {
	ordersJSON, err = json.Marshal(p.Orders)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal orders: %w", err)
	}
	paystackJSON, err = json.Marshal(p.PaystackPayment)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal paystack payment: %w", err)
	}
	return ordersJSON, paystackJSON, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint"))
}
