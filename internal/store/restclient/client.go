// Package restclient is a RemoteStore talking to a Billed REST backend.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/rs/zerolog"

	"billed/internal/models"
	"billed/internal/store"
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	HTTPClient    *http.Client
}

// Client is a RemoteStore over HTTP. Reads are retried on transport errors
// and 5xx answers; writes are attempted once.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	retrier retry.Retry[[]byte]
	log     zerolog.Logger
}

// New creates a REST client.
func New(opts Options, log zerolog.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout)
	}
	attempts := opts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    httpClient,
		retrier: retry.New[[]byte](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  delay,
			MaxDelay:      5 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable: func(err error) bool {
				return errors.Is(err, store.ErrUnavailable)
			},
		}),
		log: log,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   5,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func (c *Client) ListBills(ctx context.Context) ([]models.Bill, error) {
	body, err := c.read(ctx, "/bills")
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	var bills []models.Bill
	if err := json.Unmarshal(body, &bills); err != nil {
		return nil, fmt.Errorf("list bills: %w: decode: %v", store.ErrUnavailable, err)
	}
	return bills, nil
}

func (c *Client) GetBill(ctx context.Context, id string) (models.Bill, error) {
	body, err := c.read(ctx, "/bills/"+url.PathEscape(id))
	if err != nil {
		return models.Bill{}, fmt.Errorf("get bill %s: %w", id, err)
	}
	var bill models.Bill
	if err := json.Unmarshal(body, &bill); err != nil {
		return models.Bill{}, fmt.Errorf("get bill %s: %w: decode: %v", id, store.ErrUnavailable, err)
	}
	return bill, nil
}

func (c *Client) CreateBill(ctx context.Context, bill models.Bill) (models.Bill, error) {
	created, err := c.writeBill(ctx, http.MethodPost, "/bills", bill)
	if err != nil {
		return models.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	return created, nil
}

func (c *Client) UpdateBill(ctx context.Context, bill models.Bill) (models.Bill, error) {
	updated, err := c.writeBill(ctx, http.MethodPatch, "/bills/"+url.PathEscape(bill.ID), bill)
	if err != nil {
		return models.Bill{}, fmt.Errorf("update bill %s: %w", bill.ID, err)
	}
	return updated, nil
}

func (c *Client) UploadFile(ctx context.Context, upload store.Upload) (store.Attachment, error) {
	if upload.Body == nil {
		return store.Attachment{}, fmt.Errorf("upload file: %w: empty file", store.ErrRejected)
	}

	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("email", upload.Email); err != nil {
		return store.Attachment{}, fmt.Errorf("upload file: %w", err)
	}
	part, err := mw.CreatePart(filePartHeader(upload))
	if err != nil {
		return store.Attachment{}, fmt.Errorf("upload file: %w", err)
	}
	if _, err := io.Copy(part, upload.Body); err != nil {
		return store.Attachment{}, fmt.Errorf("upload file: read body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return store.Attachment{}, fmt.Errorf("upload file: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/bills/files", buf, mw.FormDataContentType())
	if err != nil {
		return store.Attachment{}, fmt.Errorf("upload file: %w", err)
	}
	var att store.Attachment
	if err := json.Unmarshal(body, &att); err != nil {
		return store.Attachment{}, fmt.Errorf("upload file: %w: decode: %v", store.ErrUnavailable, err)
	}
	return att, nil
}

func filePartHeader(upload store.Upload) textproto.MIMEHeader {
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.FileName)},
		"Content-Type":        {contentType},
	}
}

func (c *Client) writeBill(ctx context.Context, method, path string, bill models.Bill) (models.Bill, error) {
	payload, err := json.Marshal(bill)
	if err != nil {
		return models.Bill{}, err
	}
	body, err := c.do(ctx, method, path, bytes.NewReader(payload), "application/json")
	if err != nil {
		return models.Bill{}, err
	}
	var out models.Bill
	if err := json.Unmarshal(body, &out); err != nil {
		return models.Bill{}, fmt.Errorf("%w: decode: %v", store.ErrUnavailable, err)
	}
	return out, nil
}

// read performs an idempotent GET with retries. The error of the last
// attempt is returned so callers can match it with errors.Is.
func (c *Client) read(ctx context.Context, path string) ([]byte, error) {
	attempt := 0
	var last error
	body, err := c.retrier.Do(ctx, func(ctx context.Context) ([]byte, error) {
		attempt++
		body, err := c.do(ctx, http.MethodGet, path, nil, "")
		last = err
		if err != nil && errors.Is(err, store.ErrUnavailable) {
			c.log.Debug().Err(err).Str("path", path).Int("attempt", attempt).Msg("backend read failed")
		}
		return body, err
	})
	if err != nil {
		if last != nil {
			return nil, last
		}
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", store.ErrUnavailable, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, statusError(resp.StatusCode, data)
}

func statusError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			msg = payload.Message
		} else if payload.Error != "" {
			msg = payload.Error
		}
	}

	switch {
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", store.ErrNotFound, code)
	case code >= 500 || code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", store.ErrUnavailable, code, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", store.ErrRejected, code, msg)
	}
}
