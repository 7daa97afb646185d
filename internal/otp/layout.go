package otp

import (
	"fmt"

	"github.com/dmitrijs2005/otpmail/internal/common"
)

// Span is the half-open key range [Offset, Offset+Length) owned by a segment.
type Span struct {
	Offset int
	Length int
}

// End returns the first key index after the span.
func (s Span) End() int { return s.Offset + s.Length }

// Layout assigns cumulative, non-overlapping key spans to segments of the
// given lengths. Offsets never reset between segments.
func Layout(lengths []int) []Span {
	spans := make([]Span, len(lengths))
	offset := 0
	for i, n := range lengths {
		spans[i] = Span{Offset: offset, Length: n}
		offset += n
	}
	return spans
}

// Required returns the number of key bytes needed for the given lengths.
func Required(lengths []int) int {
	total := 0
	for _, n := range lengths {
		total += n
	}
	return total
}

// KeyTooShortError reports a transform that needs more key than available.
// It matches common.ErrKeyTooShort with errors.Is.
type KeyTooShortError struct {
	Required  int
	Available int
}

func (e *KeyTooShortError) Error() string {
	return fmt.Sprintf("%v: need %d bytes, have %d", common.ErrKeyTooShort, e.Required, e.Available)
}

func (e *KeyTooShortError) Is(target error) bool {
	return target == common.ErrKeyTooShort
}

func checkKey(lengths []int, key []byte) error {
	if required := Required(lengths); len(key) < required {
		return &KeyTooShortError{Required: required, Available: len(key)}
	}
	return nil
}

func lengthsOf(segments [][]byte) []int {
	lengths := make([]int, len(segments))
	for i, s := range segments {
		lengths[i] = len(s)
	}
	return lengths
}
