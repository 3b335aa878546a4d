// Package storetest provides an in-memory RemoteStore and bill fixtures for
// tests.
package storetest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"billed/internal/models"
	"billed/internal/store"
)

// Fake is an in-memory RemoteStore that records calls. Setting one of the
// *Err fields makes the matching operation fail.
type Fake struct {
	mu    sync.Mutex
	bills []models.Bill
	next  int

	ListErr   error
	CreateErr error
	UpdateErr error
	UploadErr error

	// BeforeList runs before ListBills returns, outside the lock.
	BeforeList func(ctx context.Context)

	ListCalls int
	Created   []models.Bill
	Updated   []models.Bill
	Uploads   []store.Upload
}

// NewFake creates a fake holding the given bills.
func NewFake(bills ...models.Bill) *Fake {
	return &Fake{bills: append([]models.Bill(nil), bills...)}
}

func (f *Fake) ListBills(ctx context.Context) ([]models.Bill, error) {
	f.mu.Lock()
	f.ListCalls++
	hook := f.BeforeList
	err := f.ListErr
	bills := append([]models.Bill(nil), f.bills...)
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (f *Fake) GetBill(_ context.Context, id string) (models.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bills {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Bill{}, fmt.Errorf("get bill %s: %w", id, store.ErrNotFound)
}

func (f *Fake) CreateBill(_ context.Context, bill models.Bill) (models.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, bill)
	if f.CreateErr != nil {
		return models.Bill{}, f.CreateErr
	}
	f.next++
	bill.ID = fmt.Sprintf("fake-%d", f.next)
	f.bills = append(f.bills, bill)
	return bill, nil
}

func (f *Fake) UpdateBill(_ context.Context, bill models.Bill) (models.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updated = append(f.Updated, bill)
	if f.UpdateErr != nil {
		return models.Bill{}, f.UpdateErr
	}
	for i := range f.bills {
		if f.bills[i].ID == bill.ID {
			f.bills[i] = bill
			return bill, nil
		}
	}
	return models.Bill{}, fmt.Errorf("update bill %s: %w", bill.ID, store.ErrNotFound)
}

func (f *Fake) UploadFile(_ context.Context, upload store.Upload) (store.Attachment, error) {
	if upload.Body != nil {
		_, _ = io.Copy(io.Discard, upload.Body)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploads = append(f.Uploads, upload)
	if f.UploadErr != nil {
		return store.Attachment{}, f.UploadErr
	}
	return store.Attachment{
		FileURL:  "https://test.storage.tld/receipts/" + upload.FileName,
		FileName: upload.FileName,
	}, nil
}

// Bills returns a copy of the stored bills.
func (f *Fake) Bills() []models.Bill {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Bill(nil), f.bills...)
}

// SetListErr changes the ListBills failure under the lock.
func (f *Fake) SetListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListErr = err
}

// CreateCount returns how many CreateBill calls were made.
func (f *Fake) CreateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Created)
}

// UploadCount returns how many UploadFile calls were made.
func (f *Fake) UploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Uploads)
}
