package otp

import (
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/otpmail/internal/common"
)

// XOR returns data combined bytewise with the first len(data) bytes of pad.
// pad must be at least as long as data.
func XOR(data, pad []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ pad[i]
	}
	return out
}

// Apply transforms every segment with its own key span. Calling Apply twice
// with the same key returns the original segments.
func Apply(segments [][]byte, key []byte) ([][]byte, error) {
	lengths := lengthsOf(segments)
	if err := checkKey(lengths, key); err != nil {
		return nil, err
	}

	out := make([][]byte, len(segments))
	for i, span := range Layout(lengths) {
		out[i] = XOR(segments[i], key[span.Offset:span.End()])
	}
	return out, nil
}

// EncryptSegments encrypts the segments in order and returns their hex
// ciphertexts.
func EncryptSegments(segments [][]byte, key []byte) ([]string, error) {
	sealed, err := Apply(segments, key)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(sealed))
	for i, b := range sealed {
		out[i] = HexEncode(b)
	}
	return out, nil
}

// DecryptSegments decodes and decrypts hex ciphertexts produced by
// EncryptSegments with the same key.
func DecryptSegments(ciphertexts []string, key []byte) ([][]byte, error) {
	raw := make([][]byte, len(ciphertexts))
	for i, c := range ciphertexts {
		b, err := HexDecode(c)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		raw[i] = b
	}
	return Apply(raw, key)
}

// DecryptText is DecryptSegments for segments that must all be UTF-8 text.
func DecryptText(ciphertexts []string, key []byte) ([]string, error) {
	plain, err := DecryptSegments(ciphertexts, key)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(plain))
	for i, b := range plain {
		s, err := Text(b)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// Text converts decrypted bytes to a string, failing with
// common.ErrInvalidPlaintextEncoding when they are not valid UTF-8. A wrong
// key or corrupted ciphertext almost always ends up here.
func Text(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", common.ErrInvalidPlaintextEncoding
	}
	return string(b), nil
}

// HexEncode renders b as lowercase hex, two characters per byte.
func HexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

// HexDecode parses hex text. Odd lengths and non-hex characters fail with
// common.ErrInvalidCiphertextEncoding.
func HexDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidCiphertextEncoding, err)
	}
	return b, nil
}
