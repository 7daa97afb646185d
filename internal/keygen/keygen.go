// Package keygen turns entropy into one-time-pad keys sized for a message.
package keygen

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/entropy"
	"github.com/sethvargo/go-retry"
	"golang.org/x/crypto/blake2b"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = 100 * time.Millisecond
)

// Sizing selects how the key length is derived from the segment lengths.
type Sizing string

const (
	// SizingExact allocates max(min, sum of segments).
	SizingExact Sizing = "exact"
	// SizingLegacy allocates max(min, 8*max(subject, body)) + attachment.
	SizingLegacy Sizing = "legacy"
)

// ParseSizing maps a config value to a Sizing. Empty means exact.
func ParseSizing(s string) (Sizing, error) {
	switch Sizing(strings.ToLower(strings.TrimSpace(s))) {
	case "", SizingExact:
		return SizingExact, nil
	case SizingLegacy:
		return SizingLegacy, nil
	default:
		return "", fmt.Errorf("%w: unknown key sizing %q", common.ErrorValidation, s)
	}
}

// Key is freshly generated pad material.
type Key struct {
	Material    []byte
	ErrorRate   float64
	Fingerprint []byte
}

type Generator struct {
	source     entropy.Source
	minLength  int
	sizing     Sizing
	retries    uint64
	retryDelay time.Duration
}

type Option func(*Generator)

// WithMinLength sets the smallest key ever generated. Negative values are ignored.
func WithMinLength(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.minLength = n
		}
	}
}

func WithSizing(s Sizing) Option {
	return func(g *Generator) {
		if s != "" {
			g.sizing = s
		}
	}
}

// WithRetries sets how many times a failed fetch is retried.
func WithRetries(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.retries = uint64(n)
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.retryDelay = d
		}
	}
}

func New(source entropy.Source, opts ...Option) *Generator {
	g := &Generator{
		source:     source,
		minLength:  common.DefaultMinKeyLength,
		sizing:     SizingExact,
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequiredLength returns the key length the generator would allocate.
func (g *Generator) RequiredLength(lengths []int) (int, error) {
	sum := 0
	for _, l := range lengths {
		if l < 0 {
			return 0, fmt.Errorf("%w: negative segment length %d", common.ErrorValidation, l)
		}
		sum += l
	}

	if g.sizing == SizingLegacy {
		return legacyLength(lengths, g.minLength), nil
	}
	return max(g.minLength, sum), nil
}

// legacyLength treats lengths as subject, body and attachments.
func legacyLength(lengths []int, minLength int) int {
	var subject, body, rest int
	for i, l := range lengths {
		switch i {
		case 0:
			subject = l
		case 1:
			body = l
		default:
			rest += l
		}
	}
	return max(minLength, 8*max(subject, body)) + rest
}

// Generate fetches a key long enough to cover every segment.
func (g *Generator) Generate(ctx context.Context, lengths []int) (*Key, error) {
	n, err := g.RequiredLength(lengths)
	if err != nil {
		return nil, err
	}

	var material []byte
	b := retry.WithMaxRetries(g.retries, retry.NewConstant(g.retryDelay))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		m, err := g.source.Fetch(ctx, n)
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(m) < n {
			return retry.RetryableError(fmt.Errorf("short key: got %d bytes, want %d", len(m), n))
		}
		material = m[:n]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEntropySourceUnavailable, err)
	}

	// Both ends hold the same copy; the receiver's is a plain duplicate.
	receiver := make([]byte, len(material))
	copy(receiver, material)

	return &Key{
		Material:    material,
		ErrorRate:   ErrorRate(material, receiver),
		Fingerprint: Fingerprint(material),
	}, nil
}

// ErrorRate is the share of positions where a and b differ. Bytes missing
// from the shorter slice count as mismatches. Empty input yields 0.
func ErrorRate(a, b []byte) float64 {
	n := max(len(a), len(b))
	if n == 0 {
		return 0
	}
	mismatches := n - min(len(a), len(b))
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] != b[i] {
			mismatches++
		}
	}
	return float64(mismatches) / float64(n)
}

// Fingerprint is the BLAKE2b-256 digest of key.
func Fingerprint(key []byte) []byte {
	sum := blake2b.Sum256(key)
	return sum[:]
}

// VerifyFingerprint reports whether key hashes to fp.
func VerifyFingerprint(key, fp []byte) bool {
	return subtle.ConstantTimeCompare(Fingerprint(key), fp) == 1
}
