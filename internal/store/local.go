package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/blake2b"

	"billed/internal/models"
	"billed/internal/storage"
)

// Receipts is an object store for receipt files.
type Receipts interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

// Local is a RemoteStore backed by the sqlite database and a receipt store.
type Local struct {
	db       *storage.DB
	receipts Receipts
}

// NewLocal creates a local RemoteStore.
func NewLocal(db *storage.DB, receipts Receipts) *Local {
	return &Local{db: db, receipts: receipts}
}

func (l *Local) ListBills(ctx context.Context) ([]models.Bill, error) {
	bills, err := l.db.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w: %v", ErrUnavailable, err)
	}
	return bills, nil
}

func (l *Local) GetBill(ctx context.Context, id string) (models.Bill, error) {
	bill, err := l.db.GetBill(ctx, id)
	if errors.Is(err, storage.ErrBillNotFound) {
		return models.Bill{}, fmt.Errorf("get bill %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Bill{}, fmt.Errorf("get bill %s: %w: %v", id, ErrUnavailable, err)
	}
	return bill, nil
}

func (l *Local) CreateBill(ctx context.Context, bill models.Bill) (models.Bill, error) {
	if err := checkBill(bill); err != nil {
		return models.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	bill.ID = uuid.NewString()
	if bill.Status == "" {
		bill.Status = models.StatusPending
	}
	if err := l.db.CreateBill(ctx, bill); err != nil {
		return models.Bill{}, fmt.Errorf("create bill: %w: %v", ErrUnavailable, err)
	}
	return bill, nil
}

func (l *Local) UpdateBill(ctx context.Context, bill models.Bill) (models.Bill, error) {
	if err := checkBill(bill); err != nil {
		return models.Bill{}, fmt.Errorf("update bill %s: %w", bill.ID, err)
	}
	err := l.db.UpdateBill(ctx, bill)
	if errors.Is(err, storage.ErrBillNotFound) {
		return models.Bill{}, fmt.Errorf("update bill %s: %w", bill.ID, ErrNotFound)
	}
	if err != nil {
		return models.Bill{}, fmt.Errorf("update bill %s: %w: %v", bill.ID, ErrUnavailable, err)
	}
	return bill, nil
}

func (l *Local) UploadFile(ctx context.Context, upload Upload) (Attachment, error) {
	if upload.Body == nil || upload.FileName == "" {
		return Attachment{}, fmt.Errorf("upload file: %w: empty file", ErrRejected)
	}
	if upload.Email == "" {
		return Attachment{}, fmt.Errorf("upload file: %w: missing owner", ErrRejected)
	}

	name := path.Base(strings.ReplaceAll(upload.FileName, "\\", "/"))
	key := path.Join("receipts", ownerDir(upload.Email), ksuid.New().String()+"-"+name)

	url, err := l.receipts.Put(ctx, key, upload.ContentType, upload.Body, upload.Size)
	if err != nil {
		return Attachment{}, fmt.Errorf("upload file: %w: %v", ErrUnavailable, err)
	}
	return Attachment{FileURL: url, FileName: name}, nil
}

// ownerDir keeps email addresses out of object keys.
func ownerDir(email string) string {
	sum := blake2b.Sum256([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:8])
}

func checkBill(bill models.Bill) error {
	switch {
	case bill.Email == "":
		return fmt.Errorf("%w: email is required", ErrRejected)
	case !bill.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrRejected, bill.Type)
	case bill.Status != "" && !bill.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrRejected, bill.Status)
	}
	if _, err := models.ParseDate(bill.Date); err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return nil
}
