package auth

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"golang.org/x/crypto/argon2"
)

var ErrUnknownEncryptor = errors.New("unknown password encryptor")

// PasswordEncryptor hashes passwords for storage and verifies candidates
// against a stored value.
type PasswordEncryptor interface {
	Encrypt(password string) (string, error)
	Matches(password, stored string) bool
}

// ByName returns the encryptor registered under name: clear, md5, crypt or argon2id.
func ByName(name string) (PasswordEncryptor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md5":
		return MD5{}, nil
	case "clear", "cleartext":
		return ClearText{}, nil
	case "crypt", "sha512-crypt":
		return Crypt{}, nil
	case "argon2", "argon2id":
		return NewArgon2id(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncryptor, name)
	}
}

// ClearText stores passwords as-is.
type ClearText struct{}

func (ClearText) Encrypt(password string) (string, error) {
	return password, nil
}

func (ClearText) Matches(password, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}

// MD5 stores the lowercase hex MD5 digest. Stored digests match case-insensitively.
type MD5 struct{}

func (MD5) Encrypt(password string) (string, error) {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (m MD5) Matches(password, stored string) bool {
	got, _ := m.Encrypt(password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(stored))) == 1
}

// Crypt generates sha512-crypt ($6$) hashes and verifies md5-crypt ($1$),
// sha256-crypt ($5$) and sha512-crypt hashes.
type Crypt struct{}

func (Crypt) Encrypt(password string) (string, error) {
	return sha512_crypt.New().Generate([]byte(password), nil)
}

func (Crypt) Matches(password, stored string) bool {
	// Verify returns nil on success.
	for _, c := range []crypt.Crypter{sha512_crypt.New(), sha256_crypt.New(), md5_crypt.New()} {
		if err := c.Verify(stored, []byte(password)); err == nil {
			return true
		}
	}
	return false
}

// Argon2id stores PHC-style strings:
// $argon2id$v=19$m=65536,t=1,p=4$<salt_b64>$<hash_b64>
type Argon2id struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

func NewArgon2id() Argon2id {
	return Argon2id{
		Memory:      64 * 1024,
		Iterations:  1,
		Parallelism: 4,
		SaltLen:     16,
		KeyLen:      32,
	}
}

func (a Argon2id) Encrypt(password string) (string, error) {
	salt := make([]byte, a.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	h := argon2.IDKey([]byte(password), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLen)
	enc := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		enc.EncodeToString(salt),
		enc.EncodeToString(h),
	), nil
}

func (a Argon2id) Matches(password, stored string) bool {
	p, salt, want, err := parsePHC(stored)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parsePHC(s string) (Argon2id, []byte, []byte, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Argon2id{}, nil, nil, errors.New("invalid password hash format")
	}
	if parts[1] != "argon2id" {
		return Argon2id{}, nil, nil, errors.New("unsupported password hash algorithm")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2id{}, nil, nil, errors.New("unsupported argon2 version")
	}
	var p Argon2id
	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &threads); err != nil {
		return Argon2id{}, nil, nil, errors.New("invalid argon2 parameters")
	}
	if threads == 0 || threads > 255 {
		return Argon2id{}, nil, nil, errors.New("invalid argon2 parallelism")
	}
	p.Parallelism = uint8(threads)

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[4])
	if err != nil {
		return Argon2id{}, nil, nil, errors.New("invalid argon2 salt")
	}
	hash, err := enc.DecodeString(parts[5])
	if err != nil || len(hash) < 16 {
		return Argon2id{}, nil, nil, errors.New("invalid argon2 hash")
	}
	return p, salt, hash, nil
}
