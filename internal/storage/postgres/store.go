package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/interfaces"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const transactionColumns = `transaction_id, transaction_uuid, amount_cents, currency, description,
	sender_user_id, receiver_user_id, idempotency_key, status, processor_intent_id,
	error_message, created_at, updated_at`

// PostgresTransactionStore implements interfaces.TransactionStore on top of
// lib/pq. Row-level locking uses SELECT ... FOR UPDATE inside a database
// transaction.
type PostgresTransactionStore struct {
	db *sql.DB
}

// NewPostgresTransactionStore runs the embedded migrations and returns the
// store.
func NewPostgresTransactionStore(db *sql.DB) (*PostgresTransactionStore, error) {
	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &PostgresTransactionStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (p *PostgresTransactionStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`
	return scanTransaction(p.db.QueryRowContext(ctx, query, key))
}

func (p *PostgresTransactionStore) InsertPending(ctx context.Context, tx *models.Transaction) error {
	const query = `INSERT INTO transactions
		(transaction_uuid, amount_cents, currency, description, sender_user_id, receiver_user_id, idempotency_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING transaction_id, created_at, updated_at`

	tx.UUID = uuid.New().String()
	tx.Status = models.StatusPending

	err := p.db.QueryRowContext(ctx, query,
		tx.UUID, tx.AmountCents, tx.Currency, nullString(tx.Description),
		tx.SenderUserID, tx.ReceiverUserID, tx.IdempotencyKey, tx.Status,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return models.ErrDuplicateKey
	}
	return err
}

func (p *PostgresTransactionStore) SetIntentID(ctx context.Context, id int64, intentID string) error {
	// processor_intent_id is written at most once.
	const query = `UPDATE transactions
		SET processor_intent_id = $1, updated_at = CURRENT_TIMESTAMP
		WHERE transaction_id = $2 AND processor_intent_id IS NULL`

	result, err := p.db.ExecContext(ctx, query, intentID, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: intent id already set or transaction missing", id)
	}
	return nil
}

func (p *PostgresTransactionStore) MarkFailed(ctx context.Context, id int64, msg string) error {
	const query = `UPDATE transactions
		SET status = $1, error_message = $2, updated_at = CURRENT_TIMESTAMP
		WHERE transaction_id = $3`

	_, err := p.db.ExecContext(ctx, query, models.StatusFailed, msg, id)
	return err
}

func (p *PostgresTransactionStore) FindByID(ctx context.Context, ref string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE transaction_id::text = $1 OR transaction_uuid::text = $1`
	return scanTransaction(p.db.QueryRowContext(ctx, query, ref))
}

func (p *PostgresTransactionStore) UpdateStatusLocked(ctx context.Context, ref string, apply func(tx *models.Transaction) error) (*models.Transaction, error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE transaction_id::text = $1 OR transaction_uuid::text = $1
		FOR UPDATE`
	tx, err := scanTransaction(dbTx.QueryRowContext(ctx, query, ref))
	if err != nil {
		return nil, err
	}

	if err := apply(tx); err != nil {
		return nil, err
	}

	const update = `UPDATE transactions
		SET status = $1, error_message = $2, updated_at = CURRENT_TIMESTAMP
		WHERE transaction_id = $3
		RETURNING updated_at`
	if err := dbTx.QueryRowContext(ctx, update, tx.Status, nullString(tx.ErrorMessage), tx.ID).Scan(&tx.UpdatedAt); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(); err != nil {
		return nil, err
	}
	return tx, nil
}

func (p *PostgresTransactionStore) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM transactions WHERE 1=1`
	var params []any

	if filter.Status != "" {
		params = append(params, filter.Status)
		clause := fmt.Sprintf(" AND status = $%d", len(params))
		query += clause
		countQuery += clause
	}
	if filter.SenderUserID != 0 {
		params = append(params, filter.SenderUserID)
		clause := fmt.Sprintf(" AND sender_user_id = $%d", len(params))
		query += clause
		countQuery += clause
	}

	var total int
	if err := p.db.QueryRowContext(ctx, countQuery, params...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(params)+1, len(params)+2)
	params = append(params, filter.Limit, offset)

	rows, err := p.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransactionRow(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (p *PostgresTransactionStore) InsertAttempt(ctx context.Context, attempt models.ReconciliationAttempt) error {
	const query = `INSERT INTO reconciliation_attempts
		(transaction_id, processor_status, status_before, status_after, error_message, checked_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, CURRENT_TIMESTAMP))`

	var ps sql.NullString
	if attempt.ProcessorStatus != nil {
		ps = sql.NullString{String: string(*attempt.ProcessorStatus), Valid: true}
	}
	var checkedAt sql.NullTime
	if !attempt.CheckedAt.IsZero() {
		checkedAt = sql.NullTime{Time: attempt.CheckedAt, Valid: true}
	}

	_, err := p.db.ExecContext(ctx, query,
		attempt.TransactionID, ps,
		nullString(string(attempt.StatusBefore)), nullString(string(attempt.StatusAfter)),
		nullString(attempt.ErrorMessage), checkedAt,
	)
	return err
}

func (p *PostgresTransactionStore) FindStaleUnresolved(ctx context.Context, grace, coolDown time.Duration, limit int) ([]models.Transaction, error) {
	// The lateral join picks each transaction's most recent attempt so a
	// single old attempt cannot defeat the cool-down.
	query := `SELECT t.transaction_id, t.transaction_uuid, t.amount_cents, t.currency, t.description,
			t.sender_user_id, t.receiver_user_id, t.idempotency_key, t.status, t.processor_intent_id,
			t.error_message, t.created_at, t.updated_at
		FROM transactions t
		LEFT JOIN LATERAL (
			SELECT ra.checked_at FROM reconciliation_attempts ra
			WHERE ra.transaction_id = t.transaction_id
			ORDER BY ra.checked_at DESC
			LIMIT 1
		) last_attempt ON TRUE
		WHERE t.status IN ($1, $2)
			AND t.created_at < NOW() - make_interval(secs => $3)
			AND (last_attempt.checked_at IS NULL OR last_attempt.checked_at < NOW() - make_interval(secs => $4))
		ORDER BY t.created_at ASC
		LIMIT $5`

	rows, err := p.db.QueryContext(ctx, query,
		models.StatusPending, models.StatusUnderReview,
		grace.Seconds(), coolDown.Seconds(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row *sql.Row) (*models.Transaction, error) {
	tx, err := scanTransactionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return tx, err
}

func scanTransactionRow(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var description, intentID, errorMessage sql.NullString

	err := row.Scan(
		&tx.ID, &tx.UUID, &tx.AmountCents, &tx.Currency, &description,
		&tx.SenderUserID, &tx.ReceiverUserID, &tx.IdempotencyKey, &tx.Status,
		&intentID, &errorMessage, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Description = description.String
	tx.ProcessorIntentID = intentID.String
	tx.ErrorMessage = errorMessage.String
	return &tx, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ interfaces.TransactionStore = (*PostgresTransactionStore)(nil)
