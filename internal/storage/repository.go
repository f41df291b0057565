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

	"momo/internal/core"
	"momo/internal/source"

	_ "modernc.org/sqlite"
)

var (
	_ source.TransactionReader = (*SQLiteRepository)(nil)
	_ source.TransactionGetter = (*SQLiteRepository)(nil)
	_ source.TransactionWriter = (*SQLiteRepository)(nil)
	_ source.RejectLogger      = (*SQLiteRepository)(nil)
)

const transactionColumns = `id, transaction_id, transaction_type, amount_cents, fee_cents,
	sender_name, receiver_name, phone_number, agent_name, agent_phone, date_time, raw_message`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
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

// Upsert inserts t or, when a row with the same transaction_id exists,
// overwrites it in place. Records without an external id always insert.
func (r *SQLiteRepository) Upsert(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	const q = `INSERT INTO transactions (
			transaction_id, transaction_type, amount_cents, fee_cents,
			sender_name, receiver_name, phone_number, agent_name, agent_phone,
			date_time, raw_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			transaction_type = excluded.transaction_type,
			amount_cents     = excluded.amount_cents,
			fee_cents        = excluded.fee_cents,
			sender_name      = excluded.sender_name,
			receiver_name    = excluded.receiver_name,
			phone_number     = excluded.phone_number,
			agent_name       = excluded.agent_name,
			agent_phone      = excluded.agent_phone,
			date_time        = excluded.date_time,
			raw_message      = excluded.raw_message
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, q,
		nullString(t.TransactionID), t.Type, t.Amount.Cents, t.Fee.Cents,
		nullString(t.SenderName), nullString(t.ReceiverName), nullString(t.PhoneNumber),
		nullString(t.AgentName), nullString(t.AgentPhone),
		nullTime(t.DateTime), nullString(t.RawMessage),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"transaction_id", t.TransactionID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents)
	return id, nil
}

// ListTransactions returns every row, newest first. Rows without a
// timestamp come last.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date_time DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return scanAll(rows)
}

// ListSince returns up to limit rows with id greater than afterID, in id order.
func (r *SQLiteRepository) ListSince(ctx context.Context, afterID int64, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id > ? ORDER BY id LIMIT ?`,
		afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions since %d: %w", afterID, err)
	}
	return scanAll(rows)
}

func (r *SQLiteRepository) ListTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT transaction_type FROM transactions
		WHERE TRIM(transaction_type) <> '' ORDER BY transaction_type`)
	if err != nil {
		return nil, fmt.Errorf("list transaction types: %w", err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan transaction type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, source.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) LogRejected(ctx context.Context, raw, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO error_logs (raw_message, error_reason) VALUES (?, ?)`, raw, reason)
	if err != nil {
		return fmt.Errorf("log rejected message: %w", err)
	}
	slog.WarnContext(ctx, "SMS rejected", "reason", reason)
	return nil
}

// CountRejected returns the number of rows in the reject log.
func (r *SQLiteRepository) CountRejected(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM error_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rejected: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                                   core.Transaction
		txID, sender, receiver, phone       sql.NullString
		agent, agentPhone, dateTime, rawMsg sql.NullString
	)
	err := s.Scan(&t.ID, &txID, &t.Type, &t.Amount.Cents, &t.Fee.Cents,
		&sender, &receiver, &phone, &agent, &agentPhone, &dateTime, &rawMsg)
	if err != nil {
		return core.Transaction{}, err
	}
	t.TransactionID = txID.String
	t.SenderName = sender.String
	t.ReceiverName = receiver.String
	t.PhoneNumber = phone.String
	t.AgentName = agent.String
	t.AgentPhone = agentPhone.String
	t.RawMessage = rawMsg.String
	if dateTime.Valid && dateTime.String != "" {
		ts, err := core.ParseDateTime(dateTime.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse date_time of row %d: %w", t.ID, err)
		}
		t.DateTime = ts
	}
	return t, nil
}

func scanAll(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(core.DateTimeLayout), Valid: true}
}
