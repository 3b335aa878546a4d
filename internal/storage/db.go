package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"billed/internal/models"
	"billed/internal/session"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// ErrBillNotFound is returned when no bill has the requested id.
var ErrBillNotFound = errors.New("bill not found")

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// An in-memory database lives as long as its single connection.
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS bills (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			type TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			amount INTEGER NOT NULL,
			vat TEXT NOT NULL DEFAULT '',
			pct INTEGER NOT NULL DEFAULT 0,
			commentary TEXT NOT NULL DEFAULT '',
			file_url TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			comment_admin TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS bills_email ON bills(email)`,
		`CREATE TABLE IF NOT EXISTS local_storage (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (namespace, key)
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

const billColumns = "id, email, type, name, date, amount, vat, pct, commentary, file_url, file_name, status, comment_admin"

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (models.Bill, error) {
	var b models.Bill
	err := row.Scan(&b.ID, &b.Email, &b.Type, &b.Name, &b.Date, &b.Amount, &b.VAT, &b.Pct,
		&b.Commentary, &b.FileURL, &b.FileName, &b.Status, &b.CommentAdmin)
	return b, err
}

// CreateBill inserts a new bill. The caller assigns the id.
func (db *DB) CreateBill(ctx context.Context, b models.Bill) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO bills ("+billColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.Email, b.Type, b.Name, b.Date, b.Amount, b.VAT, b.Pct,
		b.Commentary, b.FileURL, b.FileName, b.Status, b.CommentAdmin,
	)
	return err
}

// GetBill retrieves a single bill by id.
func (db *DB) GetBill(ctx context.Context, id string) (models.Bill, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bills WHERE id = ?", id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bill{}, ErrBillNotFound
	}
	return b, err
}

// UpdateBill overwrites every editable column of an existing bill.
func (db *DB) UpdateBill(ctx context.Context, b models.Bill) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE bills SET type = ?, name = ?, date = ?, amount = ?, vat = ?, pct = ?, commentary = ?,
			file_url = ?, file_name = ?, status = ?, comment_admin = ? WHERE id = ?`,
		b.Type, b.Name, b.Date, b.Amount, b.VAT, b.Pct, b.Commentary,
		b.FileURL, b.FileName, b.Status, b.CommentAdmin, b.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBillNotFound
	}
	return nil
}

// ListBills retrieves every bill in insertion order. Ordering for display
// is up to the caller.
func (db *DB) ListBills(ctx context.Context) ([]models.Bill, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT "+billColumns+" FROM bills ORDER BY created_at, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []models.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}

	return bills, rows.Err()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LocalStorage returns the key/value storage of one client namespace.
func (db *DB) LocalStorage(namespace string) session.Storage {
	return &localStorage{db: db, namespace: namespace}
}

// PruneLocalStorage removes items not written since the given time.
func (db *DB) PruneLocalStorage(ctx context.Context, before time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM local_storage WHERE updated_at < ?", before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type localStorage struct {
	db        *DB
	namespace string
}

func (s *localStorage) GetItem(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT value FROM local_storage WHERE namespace = ? AND key = ?",
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", session.ErrItemNotFound
	}
	return value, err
}

func (s *localStorage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO local_storage (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.namespace, key, value, time.Now(),
	)
	return err
}

func (s *localStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.conn.ExecContext(ctx,
		"DELETE FROM local_storage WHERE namespace = ? AND key = ?",
		s.namespace, key,
	)
	return err
}
