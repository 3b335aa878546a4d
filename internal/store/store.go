// Package store defines the client of the backend bill collection and its
// local implementation.
package store

import (
	"context"
	"errors"
	"io"

	"billed/internal/models"
)

var (
	// ErrNotFound is returned when the requested bill does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned when the backend cannot be reached or failed.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRejected is returned when the backend refused the payload.
	ErrRejected = errors.New("rejected by backend")
)

// RemoteStore is the backend collection of bills.
type RemoteStore interface {
	// ListBills returns the bills in no particular order.
	ListBills(ctx context.Context) ([]models.Bill, error)
	GetBill(ctx context.Context, id string) (models.Bill, error)
	// CreateBill stores a new bill and returns it with its assigned id.
	CreateBill(ctx context.Context, bill models.Bill) (models.Bill, error)
	UpdateBill(ctx context.Context, bill models.Bill) (models.Bill, error)
	// UploadFile stores a receipt and returns where it can be fetched.
	UploadFile(ctx context.Context, upload Upload) (Attachment, error)
}

// Upload is a receipt file on its way to the backend.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	Email       string
}

// Attachment is an uploaded receipt.
type Attachment struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}
