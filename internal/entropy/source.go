package entropy

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/logging"
)

var errNegativeLength = errors.New("entropy: negative length")

// Source returns exactly n random bytes or an error.
type Source interface {
	Fetch(ctx context.Context, n int) ([]byte, error)
}

// LocalSource reads from a cryptographically secure generator.
type LocalSource struct {
	reader io.Reader
}

// NewLocalSource returns a LocalSource backed by crypto/rand.
func NewLocalSource() *LocalSource {
	return &LocalSource{reader: rand.Reader}
}

func (s *LocalSource) Fetch(ctx context.Context, n int) ([]byte, error) {
	if n < 0 {
		return nil, errNegativeLength
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(s.reader, b); err != nil {
		return nil, fmt.Errorf("local entropy: %w", err)
	}
	return b, nil
}

// FallbackSource serves from primary and switches to fallback for any request
// the primary cannot satisfy. A nil primary means "fallback only".
type FallbackSource struct {
	primary  Source
	fallback Source
	logger   logging.Logger
}

func NewFallbackSource(primary, fallback Source, logger logging.Logger) *FallbackSource {
	return &FallbackSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("module", "entropy"),
	}
}

func (s *FallbackSource) Fetch(ctx context.Context, n int) ([]byte, error) {
	if n < 0 {
		return nil, errNegativeLength
	}
	if n == 0 {
		return []byte{}, nil
	}

	if s.primary != nil {
		b, err := s.primary.Fetch(ctx, n)
		if err == nil && len(b) >= n {
			return b[:n], nil
		}
		if err == nil {
			err = fmt.Errorf("short read: got %d bytes, want %d", len(b), n)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn(ctx, "entropy source unavailable, using fallback", "bytes", n, "error", err.Error())
	}

	b, err := s.fallback.Fetch(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEntropySourceUnavailable, err)
	}
	if len(b) < n {
		return nil, fmt.Errorf("%w: fallback returned %d bytes, want %d", common.ErrEntropySourceUnavailable, len(b), n)
	}
	return b[:n], nil
}
