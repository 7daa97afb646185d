package otp

import (
	"bytes"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T, n int) []byte {
	t.Helper()
	k := make([]byte, n)
	_, err := rand.Read(k)
	require.NoError(t, err)
	return k
}

func TestLayout_CumulativeOffsets(t *testing.T) {
	spans := Layout([]int{2, 12, 5})

	require.Len(t, spans, 3)
	assert.Equal(t, Span{Offset: 0, Length: 2}, spans[0])
	assert.Equal(t, Span{Offset: 2, Length: 12}, spans[1])
	assert.Equal(t, Span{Offset: 14, Length: 5}, spans[2])
	assert.Equal(t, 19, Required([]int{2, 12, 5}))
}

func TestLayout_SpansArePairwiseDisjoint(t *testing.T) {
	cases := [][]int{
		{0, 0, 0},
		{1, 0, 1},
		{3, 7, 11},
		{0, 300, 0},
		{128, 1, 4096},
	}

	for _, lengths := range cases {
		used := make(map[int]int)
		for seg, span := range Layout(lengths) {
			for i := span.Offset; i < span.End(); i++ {
				if prev, dup := used[i]; dup {
					t.Fatalf("lengths %v: key byte %d used by segments %d and %d", lengths, i, prev, seg)
				}
				used[i] = seg
			}
		}
		assert.Len(t, used, Required(lengths))
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		body       string
		attachment []byte
	}{
		{name: "scenario", subject: "Hi", body: "Quantum test"},
		{name: "with attachment", subject: "report", body: "see attached", attachment: []byte{0x00, 0xFF, 0x10, 0x7F}},
		{name: "unicode", subject: "Привет", body: "量子 ✉️", attachment: []byte("plain text file")},
		{name: "empty segments", subject: "", body: "", attachment: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := [][]byte{[]byte(tt.subject), []byte(tt.body), tt.attachment}
			key := randomKey(t, max(128, Required(lengthsOf(segments))))

			ct, err := EncryptSegments(segments, key)
			require.NoError(t, err)
			require.Len(t, ct, 3)
			for i, c := range ct {
				assert.Len(t, c, 2*len(segments[i]), "segment %d hex length", i)
				assert.Equal(t, strings.ToLower(c), c)
			}

			plain, err := DecryptSegments(ct, key)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, string(plain[0]))
			assert.Equal(t, tt.body, string(plain[1]))
			assert.True(t, bytes.Equal(tt.attachment, plain[2]))
		})
	}
}

func TestEncrypt_UsesDisjointKeySlices(t *testing.T) {
	// With an all-zero plaintext the ciphertext is the key slice itself, which
	// makes the consumed ranges directly visible.
	key := randomKey(t, 32)
	segments := [][]byte{make([]byte, 4), make([]byte, 6), make([]byte, 10)}

	sealed, err := Apply(segments, key)
	require.NoError(t, err)

	assert.Equal(t, key[0:4], sealed[0])
	assert.Equal(t, key[4:10], sealed[1])
	assert.Equal(t, key[10:20], sealed[2])
}

func TestApply_DoubleXORIsIdentity(t *testing.T) {
	key := randomKey(t, 256)
	segments := [][]byte{[]byte("subject"), randomKey(t, 100), []byte("attachment bytes")}

	once, err := Apply(segments, key)
	require.NoError(t, err)
	twice, err := Apply(once, key)
	require.NoError(t, err)

	assert.Equal(t, segments, twice)
	assert.NotEqual(t, segments[0], once[0])
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	key := randomKey(t, 8)
	in := []byte("abcd")

	out, err := Apply([][]byte{in}, key)
	require.NoError(t, err)

	out[0][0] ^= 0xFF
	assert.Equal(t, []byte("abcd"), in)
}

func TestEncrypt_KeyTooShort(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 300)
	key := randomKey(t, 100)

	_, err := EncryptSegments([][]byte{body}, key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrKeyTooShort))

	var tooShort *KeyTooShortError
	require.True(t, errors.As(err, &tooShort))
	assert.Equal(t, 300, tooShort.Required)
	assert.Equal(t, 100, tooShort.Available)
	assert.Contains(t, err.Error(), "need 300 bytes, have 100")
}

func TestEncrypt_KeyTooShortAcrossSegmentCombinations(t *testing.T) {
	for _, lengths := range [][]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {5, 5, 5}, {0, 16}, {16, 0}} {
		segments := make([][]byte, len(lengths))
		for i, n := range lengths {
			segments[i] = make([]byte, n)
		}
		required := Required(lengths)

		_, err := EncryptSegments(segments, make([]byte, required-1))
		assert.ErrorIs(t, err, common.ErrKeyTooShort, "lengths %v", lengths)

		_, err = EncryptSegments(segments, make([]byte, required))
		assert.NoError(t, err, "lengths %v", lengths)
	}
}

func TestEncrypt_ZeroLengthSegmentsNeedNoKey(t *testing.T) {
	ct, err := EncryptSegments([][]byte{{}, {}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, ct)
}

func TestDecrypt_KeyTooShort(t *testing.T) {
	key := randomKey(t, 16)
	ct, err := EncryptSegments([][]byte{[]byte("0123456789")}, key)
	require.NoError(t, err)

	_, err = DecryptSegments(ct, key[:9])
	assert.ErrorIs(t, err, common.ErrKeyTooShort)
}

func TestDecrypt_CorruptedHex(t *testing.T) {
	key := randomKey(t, 128)
	ct, err := EncryptSegments([][]byte{[]byte("Hi"), []byte("Quantum test")}, key)
	require.NoError(t, err)

	corrupted := []byte(ct[1])
	corrupted[3] = 'z'
	_, err = DecryptSegments([]string{ct[0], string(corrupted)}, key)
	assert.ErrorIs(t, err, common.ErrInvalidCiphertextEncoding)

	_, err = DecryptSegments([]string{ct[0], ct[1][:len(ct[1])-1]}, key)
	assert.ErrorIs(t, err, common.ErrInvalidCiphertextEncoding)
}

func TestDecryptText_WrongKey(t *testing.T) {
	key := randomKey(t, 128)
	ct, err := EncryptSegments([][]byte{[]byte("Hi"), []byte("Quantum test")}, key)
	require.NoError(t, err)

	// Flipping the high bit of every key byte turns ASCII letters into UTF-8
	// lead bytes that are never followed by a continuation byte.
	wrong := make([]byte, len(key))
	for i := range key {
		wrong[i] = key[i] ^ 0x80
	}

	_, err = DecryptText(ct, wrong)
	assert.ErrorIs(t, err, common.ErrInvalidPlaintextEncoding)

	got, err := DecryptText(ct, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi", "Quantum test"}, got)
}

func TestHex_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 15, 255, 1024} {
		b := randomKey(t, n)
		got, err := HexDecode(HexEncode(b))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(b, got), "n=%d", n)
	}
}

func TestHexDecode_Rejects(t *testing.T) {
	for _, s := range []string{"a", "abc", "zz", "0g", "12 4", "é1"} {
		_, err := HexDecode(s)
		assert.ErrorIs(t, err, common.ErrInvalidCiphertextEncoding, "input %q", s)
	}
}

func TestText_ValidatesUTF8(t *testing.T) {
	s, err := Text([]byte("ok ✓"))
	require.NoError(t, err)
	assert.Equal(t, "ok ✓", s)

	_, err = Text([]byte{0xC3, 0x28})
	assert.ErrorIs(t, err, common.ErrInvalidPlaintextEncoding)
}
