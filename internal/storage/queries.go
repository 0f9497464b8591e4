package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, password_hash) VALUES (?, ?)
RETURNING id
`

func (q *Queries) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	row := q.db.QueryRowContext(ctx, createUser, username, passwordHash)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT id, username, password_hash FROM users WHERE username = ?
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash)
	return i, err
}

type CreateTransactionParams struct {
	UserID    int64
	TransType string
	Amount    string
	Date      string
	Category  string
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (user_id, trans_type, amount, date, category)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.UserID,
		arg.TransType,
		arg.Amount,
		arg.Date,
		arg.Category,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getTransaction = `-- name: GetTransaction :one
SELECT id, user_id, trans_type, amount, date, category, export_status
FROM transactions WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i Transaction
	err := scanTransaction(row, &i)
	return i, err
}

const listTransactionsByUser = `-- name: ListTransactionsByUser :many
SELECT id, user_id, trans_type, amount, date, category, export_status
FROM transactions WHERE user_id = ? ORDER BY id
`

func (q *Queries) ListTransactionsByUser(ctx context.Context, userID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := scanTransaction(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPendingExports = `-- name: ListPendingExports :many
SELECT id FROM transactions WHERE export_status = 'pending' ORDER BY id LIMIT ?
`

func (q *Queries) ListPendingExports(ctx context.Context, limit int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listPendingExports, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markTransactionExported = `-- name: MarkTransactionExported :exec
UPDATE transactions SET export_status = 'exported', exported_at = CURRENT_TIMESTAMP WHERE id = ?
`

func (q *Queries) MarkTransactionExported(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionExported, id)
	return err
}

const markTransactionExportError = `-- name: MarkTransactionExportError :exec
UPDATE transactions SET export_status = 'error' WHERE id = ?
`

func (q *Queries) MarkTransactionExportError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionExportError, id)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s scanner, i *Transaction) error {
	return s.Scan(
		&i.ID,
		&i.UserID,
		&i.TransType,
		&i.Amount,
		&i.Date,
		&i.Category,
		&i.ExportStatus,
	)
}
