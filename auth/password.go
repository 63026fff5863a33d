package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

type (
	Params struct {
		// Memory in KiB
		Memory  uint32
		Time    uint32
		Threads uint8
		SaltLen uint32
		KeyLen  uint32
	}

	Hasher struct {
		params Params
		random io.Reader
	}

	digest struct {
		algorithm string
		params    Params
		salt      []byte
		key       []byte
	}
)

const (
	algArgon2id = "argon2id"
	algArgon2i  = "argon2i"

	maxDigestMemory = 4 * 1024 * 1024
)

var (
	// DefaultParams follow the OWASP argon2id baseline (19 MiB, 2 passes)
	DefaultParams = Params{
		Memory:  19 * 1024,
		Time:    2,
		Threads: 1,
		SaltLen: 16,
		KeyLen:  32,
	}

	b64 = base64.RawStdEncoding
)

// NewHasher returns a hasher using the given params and source of
// randomness for salts. A nil random uses crypto/rand.
func NewHasher(params Params, random io.Reader) *Hasher {
	if random == nil {
		random = rand.Reader
	}
	return &Hasher{params: params, random: random}
}

// Hash returns a self-describing digest of passwd. Each call uses a fresh
// salt, hashing the same password twice gives different digests.
func (h *Hasher) Hash(passwd PlainText) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	_, err := io.ReadFull(h.random, salt)
	if err != nil {
		return "", HashError{cause: fmt.Errorf("unable to generate salt, cause %w", err)}
	}
	d := digest{
		algorithm: algArgon2id,
		params:    h.params,
		salt:      salt,
		key:       argon2.IDKey(passwd, salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen),
	}
	return d.String(), nil
}

// Verify reports whether passwd reproduces the encoded digest.
// A digest that cannot be parsed returns MalformedDigest.
func (h *Hasher) Verify(passwd PlainText, encoded string) (bool, error) {
	d, err := parseDigest(encoded)
	if err != nil {
		return false, err
	}
	var key []byte
	p := d.params
	switch d.algorithm {
	case algArgon2id:
		key = argon2.IDKey(passwd, d.salt, p.Time, p.Memory, p.Threads, uint32(len(d.key)))
	case algArgon2i:
		key = argon2.Key(passwd, d.salt, p.Time, p.Memory, p.Threads, uint32(len(d.key)))
	}
	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

func (d digest) String() string {
	return fmt.Sprintf("$%v$v=%d$m=%d,t=%d,p=%d$%v$%v",
		d.algorithm, argon2.Version,
		d.params.Memory, d.params.Time, d.params.Threads,
		b64.EncodeToString(d.salt), b64.EncodeToString(d.key))
}

func parseDigest(encoded string) (digest, error) {
	var d digest
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return d, MalformedDigest{Reason: "expecting $alg$v=..$params$salt$key"}
	}
	d.algorithm = parts[1]
	switch d.algorithm {
	case algArgon2id, algArgon2i:
	default:
		return d, MalformedDigest{Reason: fmt.Sprintf("unsupported algorithm %q", d.algorithm)}
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return d, MalformedDigest{Reason: fmt.Sprintf("unsupported version %q", parts[2])}
	}
	var err error
	d.params, err = parseParams(parts[3])
	if err != nil {
		return d, err
	}
	d.salt, err = b64.DecodeString(parts[4])
	if err != nil || len(d.salt) == 0 {
		return d, MalformedDigest{Reason: "invalid salt encoding"}
	}
	d.key, err = b64.DecodeString(parts[5])
	if err != nil || len(d.key) < 4 {
		return d, MalformedDigest{Reason: "invalid key encoding"}
	}
	d.params.SaltLen = uint32(len(d.salt))
	d.params.KeyLen = uint32(len(d.key))
	return d, nil
}

func parseParams(encoded string) (Params, error) {
	var p Params
	seen := map[string]bool{}
	for _, kv := range strings.Split(encoded, ",") {
		idx := strings.IndexByte(kv, '=')
		if idx <= 0 {
			return p, MalformedDigest{Reason: fmt.Sprintf("invalid parameter %q", kv)}
		}
		name, value := kv[:idx], kv[idx+1:]
		if seen[name] {
			return p, MalformedDigest{Reason: fmt.Sprintf("duplicated parameter %q", name)}
		}
		seen[name] = true
		var bits int
		switch name {
		case "m", "t":
			bits = 32
		case "p":
			bits = 8
		default:
			return p, MalformedDigest{Reason: fmt.Sprintf("unknown parameter %q", name)}
		}
		n, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return p, MalformedDigest{Reason: fmt.Sprintf("invalid value for parameter %q", name)}
		}
		switch name {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Time = uint32(n)
		case "p":
			p.Threads = uint8(n)
		}
	}
	switch {
	case !seen["m"] || !seen["t"] || !seen["p"]:
		return p, MalformedDigest{Reason: "missing m, t or p parameter"}
	case p.Time == 0 || p.Threads == 0:
		return p, MalformedDigest{Reason: "t and p must be positive"}
	case p.Memory < 8*uint32(p.Threads) || p.Memory > maxDigestMemory:
		return p, MalformedDigest{Reason: "memory parameter out of range"}
	}
	return p, nil
}
