package entropy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/common"
)

const (
	// DefaultTimeout bounds a single request to the QRNG service.
	DefaultTimeout = 5 * time.Second
	// DefaultBatchSize is the largest length requested in one call.
	DefaultBatchSize = 1024
)

// ErrBadPayload is returned when the service answers 200 with a body that
// cannot be used as key material.
var ErrBadPayload = errors.New("qrng: bad payload")

// StatusError is a non-200 answer from the QRNG service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("qrng: HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("qrng: HTTP %d", e.StatusCode)
}

type qrngResponse struct {
	Success bool  `json:"success"`
	Data    []int `json:"data"`
}

// QRNGSource fetches uint8 values from a quantum random number service.
type QRNGSource struct {
	endpoint   *url.URL
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	batchSize  int
}

// Option configures a QRNGSource.
type Option func(*QRNGSource)

// WithAPIKey sets the apiKey query parameter.
func WithAPIKey(key string) Option {
	return func(s *QRNGSource) {
		s.apiKey = key
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *QRNGSource) {
		s.httpClient = c
	}
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *QRNGSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBatchSize sets the largest length requested at once.
func WithBatchSize(n int) Option {
	return func(s *QRNGSource) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewQRNGSource creates a client for the service at endpoint.
func NewQRNGSource(endpoint string, opts ...Option) (*QRNGSource, error) {
	if endpoint == "" {
		return nil, errors.New("qrng: endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("qrng: invalid endpoint: %w", err)
	}

	s := &QRNGSource{
		endpoint:   u,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		batchSize:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fetch returns exactly n bytes, issuing as many batched requests as needed.
func (s *QRNGSource) Fetch(ctx context.Context, n int) ([]byte, error) {
	if n < 0 {
		return nil, errNegativeLength
	}

	out := make([]byte, 0, n)
	for len(out) < n {
		chunk := min(s.batchSize, n-len(out))
		b, err := s.fetchBatch(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (s *QRNGSource) fetchBatch(ctx context.Context, n int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cb, err := common.MakeRandHexString(8)
	if err != nil {
		return nil, fmt.Errorf("qrng: cache buster: %w", err)
	}

	u := *s.endpoint
	q := u.Query()
	q.Set("length", strconv.Itoa(n))
	q.Set("type", "uint8")
	if s.apiKey != "" {
		q.Set("apiKey", s.apiKey)
	}
	q.Set("cb", cb)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("qrng: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qrng: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload qrngResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("%w: success=false", ErrBadPayload)
	}
	if len(payload.Data) < n {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrBadPayload, len(payload.Data), n)
	}

	b := make([]byte, n)
	for i, v := range payload.Data[:n] {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: value %d out of range", ErrBadPayload, v)
		}
		b[i] = byte(v)
	}
	return b, nil
}
