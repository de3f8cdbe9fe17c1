package tagmap

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: map[string]string{},
		},
		{
			name:     "two pairs",
			input:    "a=1,b=2",
			expected: map[string]string{"a": "1", "b": "2"},
		},
		{
			name:     "split on first equals only",
			input:    "url=http://x",
			expected: map[string]string{"url": "http://x"},
		},
		{
			name:     "empty value",
			input:    "a=",
			expected: map[string]string{"a": ""},
		},
		{
			name:     "later duplicate wins",
			input:    "a=1,a=2",
			expected: map[string]string{"a": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	for _, input := range []string{"a", "a=1,b", "a=1,,b=2", "=1"} {
		t.Run(input, func(t *testing.T) {
			_, err := Decode(input)
			require.Error(t, err)
			assert.True(t, IsDecodingError(err), "expected DecodingError, got %T", err)
		})
	}
}

func TestEncode(t *testing.T) {
	got, err := Encode(map[string]string{"b": "2", "a": "1"})
	require.NoError(t, err)
	assert.Equal(t, "a=1,b=2", got)

	got, err = Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestEncode_RejectsSeparators(t *testing.T) {
	tests := []map[string]string{
		{"a": "1,2"},
		{"a": "x=y"},
		{"a,b": "1"},
		{"a=b": "1"},
		{"": "1"},
	}

	for _, tags := range tests {
		_, err := Encode(tags)
		require.Error(t, err, "tags %v", tags)
		assert.True(t, IsEncodingError(err))
		assert.True(t, IsEncodingError(Validate(tags)))
	}
}

func TestNormalizeLines(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"a=1\n", "a=1"},
		{"a=1\nb=2\n", "a=1,b=2"},
		{"a=1\r\nb=2\r\n", "a=1,b=2"},
		{"a=1\n\n\nb=2", "a=1,b=2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeLines(tt.input), "input %q", tt.input)
	}
}

func TestDecodeLines_EquivalentToCommaForm(t *testing.T) {
	fromLines, err := DecodeLines("purpose=mgmt\nowner=ops\n")
	require.NoError(t, err)

	fromCommas, err := Decode("owner=ops,purpose=mgmt")
	require.NoError(t, err)

	assert.True(t, Equal(fromLines, fromCommas))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, map[string]string{}))
	assert.True(t, Equal(map[string]string{"a": "1"}, map[string]string{"a": "1"}))
	assert.False(t, Equal(map[string]string{"a": "1"}, map[string]string{"a": "2"}))
	assert.False(t, Equal(map[string]string{"a": "1"}, nil))
}

// randomToken returns a short string drawn from an alphabet without separators.
func randomToken(r *rand.Rand, allowEmpty bool) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_.:/ "
	n := r.IntN(8)
	if n == 0 && !allowEmpty {
		n = 1
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[r.IntN(len(alphabet))])
	}
	return b.String()
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))

	for i := 0; i < 500; i++ {
		tags := make(map[string]string)
		for j := r.IntN(6); j > 0; j-- {
			tags[randomToken(r, false)] = randomToken(r, true)
		}

		encoded, err := Encode(tags)
		require.NoError(t, err)

		decoded, err := Decode(encoded)
		require.NoError(t, err)
		require.True(t, Equal(tags, decoded), "round trip of %v produced %v", tags, decoded)
	}
}
