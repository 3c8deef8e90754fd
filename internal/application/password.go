package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPasswordHash         = errors.New("invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
)

// HashAlgorithm selects the encoding produced by PasswordHasher.Hash.
type HashAlgorithm string

const (
	HashArgon2id HashAlgorithm = "argon2id"
	HashBcrypt   HashAlgorithm = "bcrypt"
)

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher hashes new passwords with one algorithm and verifies hashes of
// either supported encoding, so accounts seeded with bcrypt keep working.
type PasswordHasher struct {
	Algorithm  HashAlgorithm
	Argon2id   Argon2idParams
	BcryptCost int
}

// NewPasswordHasher returns a hasher for algorithm. Unknown algorithms fall back
// to argon2id; a non-positive cost uses bcrypt.DefaultCost.
func NewPasswordHasher(algorithm HashAlgorithm, bcryptCost int) PasswordHasher {
	if algorithm != HashBcrypt {
		algorithm = HashArgon2id
	}
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return PasswordHasher{Algorithm: algorithm, Argon2id: DefaultArgon2idParams, BcryptCost: bcryptCost}
}

// Hash encodes password with the configured algorithm.
func (h PasswordHasher) Hash(password string) (string, error) {
	if h.Algorithm == HashBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), h.BcryptCost)
		if err != nil {
			return "", err
		}
		return string(hash), nil
	}
	params := h.Argon2id
	if params.KeyLength == 0 {
		params = DefaultArgon2idParams
	}
	return CreatePasswordHash(password, params)
}

// Verify compares a stored hash with a candidate password.
func (h PasswordHasher) Verify(hashedPassword, password string) error {
	return VerifyPassword(hashedPassword, password)
}

func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// Format is $argon2id$v=19$m=...,t=...,p=...$salt$hash
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

// VerifyPassword checks password against an argon2id or bcrypt ($2a$/$2b$/$2y$) hash.
func VerifyPassword(hashedPassword, password string) error {
	if strings.HasPrefix(hashedPassword, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return ErrInvalidCredentials
			}
			return fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
		}
		return nil
	}

	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 {
		return ErrInvalidPasswordHash
	}

	if parts[1] != "argon2id" {
		return ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return err
	}
	if version != argon2.Version {
		return ErrIncompatiblePasswordVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return err
	}
	params.SaltLength = uint32(len(salt))

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return err
	}
	params.KeyLength = uint32(len(decodedHash))

	comparisonHash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}

	return ErrInvalidCredentials
}
