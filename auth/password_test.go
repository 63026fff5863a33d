package auth

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// keeps tests fast, production code uses DefaultParams
	testParams = Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}
)

type (
	failingReader struct{}
)

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy pool is empty")
}

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(testParams, nil)
	for _, pw := range []string{"secret", "", "çãé unicode ✓", strings.Repeat("x", 1024)} {
		d1, err := h.Hash(PlainText(pw))
		require.NoError(t, err)
		d2, err := h.Hash(PlainText(pw))
		require.NoError(t, err)
		require.NotEqual(t, d1, d2, "salt must be unique per call")
		if pw != "" {
			requireNoPlaintext(t, d1, pw)
		}

		ok, err := h.Verify(PlainText(pw), d1)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = h.Verify(PlainText(pw+"!"), d1)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

// requireNoPlaintext checks that pw shows up neither in the encoded digest
// nor in its decoded salt and key
func requireNoPlaintext(t *testing.T, encoded, pw string) {
	t.Helper()
	require.NotContains(t, encoded, pw)
	d, err := parseDigest(encoded)
	require.NoError(t, err)
	require.False(t, bytes.Contains(d.salt, []byte(pw)), "salt carries the plaintext")
	require.False(t, bytes.Contains(d.key, []byte(pw)), "key carries the plaintext")
}

func TestDigestFormat(t *testing.T) {
	d, err := NewHasher(DefaultParams, nil).Hash(PlainText("pw"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(d, "$argon2id$v=19$m=19456,t=2,p=1$"), d)
	parsed, err := parseDigest(d)
	require.NoError(t, err)
	require.Len(t, parsed.salt, 16)
	require.Len(t, parsed.key, 32)
}

func TestVerifyWithOtherParams(t *testing.T) {
	// digests carry their own params, changing the hasher config must not
	// invalidate what is already stored
	old, err := NewHasher(testParams, nil).Hash(PlainText("pw"))
	require.NoError(t, err)
	ok, err := NewHasher(DefaultParams, nil).Verify(PlainText("pw"), old)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMalformedDigest(t *testing.T) {
	h := NewHasher(testParams, nil)
	good, err := h.Hash(PlainText("pw"))
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	for name, digest := range map[string]string{
		"empty":             "",
		"plain":             "pw",
		"bcrypt":            "$2a$10$abcdefghijklmnopqrstuu",
		"unknown algorithm": strings.Join([]string{"", "scrypt", parts[2], parts[3], parts[4], parts[5]}, "$"),
		"bad version":       strings.Join([]string{"", parts[1], "v=16", parts[3], parts[4], parts[5]}, "$"),
		"missing param":     strings.Join([]string{"", parts[1], parts[2], "m=1024,t=1", parts[4], parts[5]}, "$"),
		"duplicated param":  strings.Join([]string{"", parts[1], parts[2], "m=1024,t=1,p=1,p=2", parts[4], parts[5]}, "$"),
		"unknown param":     strings.Join([]string{"", parts[1], parts[2], "m=1024,t=1,p=1,x=1", parts[4], parts[5]}, "$"),
		"zero time":         strings.Join([]string{"", parts[1], parts[2], "m=1024,t=0,p=1", parts[4], parts[5]}, "$"),
		"huge memory":       strings.Join([]string{"", parts[1], parts[2], "m=999999999,t=1,p=1", parts[4], parts[5]}, "$"),
		"bad salt":          strings.Join([]string{"", parts[1], parts[2], parts[3], "!!!", parts[5]}, "$"),
		"empty key":         strings.Join([]string{"", parts[1], parts[2], parts[3], parts[4], ""}, "$"),
		"extra section":     good + "$extra",
	} {
		ok, err := h.Verify(PlainText("pw"), digest)
		require.False(t, ok, name)
		var malformed MalformedDigest
		require.ErrorAs(t, err, &malformed, name)
	}
}

func TestArgon2iDigest(t *testing.T) {
	h := NewHasher(testParams, nil)
	id, err := h.Hash(PlainText("pw"))
	require.NoError(t, err)
	d, err := parseDigest(id)
	require.NoError(t, err)
	d.algorithm = algArgon2i
	// same salt and params but a different algorithm must not verify
	ok, err := h.Verify(PlainText("pw"), d.String())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashErrorOnEntropyFailure(t *testing.T) {
	_, err := NewHasher(testParams, failingReader{}).Hash(PlainText("pw"))
	var hashErr HashError
	require.ErrorAs(t, err, &hashErr)
	require.Contains(t, err.Error(), "entropy pool is empty")
}

func TestPlainText(t *testing.T) {
	p := PlainText("hunter2")
	require.Equal(t, "[redacted]", p.String())
	p.Zero()
	require.Equal(t, make([]byte, 7), []byte(p))
}
