package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/tickstate-go/pkg/token"
)

// Credential constants.
const (
	// CredentialTokenPrefix marks plaintext credential tokens.
	CredentialTokenPrefix = "tsck_"

	// CredentialHashPrefix marks stored credential token hashes.
	CredentialHashPrefix = "tsch_"

	// CredentialIDPrefix marks credential record ids.
	CredentialIDPrefix = "tscr-"
)

// Credential is an access token minted for one identity in one partition.
//
// Token is the plaintext and is only populated on issue; it is never
// persisted. TokenHash is what the registry stores.
type Credential struct {
	ID        string      `json:"id"`
	Token     string      `json:"-"`
	TokenHash string      `json:"token_hash"`
	Partition PartitionID `json:"partition"`
	UserID    string      `json:"user_id"`
	IssuedAt  int64       `json:"issued_at"`
	ExpiresAt int64       `json:"expires_at"`
}

// NewCredential mints a credential for userID in partition p. A zero ttl
// means the credential never expires.
func NewCredential(p PartitionID, userID string, ttl time.Duration) (*Credential, error) {
	if userID == "" {
		return nil, ErrInvalidArgument.WithDetails("user id is required")
	}
	id, err := GenerateCredentialID()
	if err != nil {
		return nil, err
	}
	plaintext, hash, err := GenerateCredentialToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c := &Credential{
		ID:        id,
		Token:     plaintext,
		TokenHash: hash,
		Partition: p,
		UserID:    userID,
		IssuedAt:  now.UnixMilli(),
	}
	if ttl > 0 {
		c.ExpiresAt = now.Add(ttl).UnixMilli()
	}
	return c, nil
}

// ids are monotonic within a process so sorting by id follows mint order.
var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// GenerateCredentialID returns tscr-{ulid_lowercase}.
func GenerateCredentialID() (string, error) {
	idMu.Lock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), idEntropy)
	idMu.Unlock()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return CredentialIDPrefix + strings.ToLower(id.String()), nil
}

// GenerateCredentialToken returns a plaintext token (tsck_...) and its hash (tsch_...).
func GenerateCredentialToken() (plaintext, hash string, err error) {
	plaintext, err = token.GeneratePrefixed(CredentialTokenPrefix)
	if err != nil {
		return "", "", ErrInternal.WithCause(err)
	}
	return plaintext, HashCredentialToken(plaintext), nil
}

// HashCredentialToken returns tsch_{hex_sha256}.
func HashCredentialToken(plaintext string) string {
	return token.HashPrefixed(CredentialHashPrefix, plaintext)
}

// IsExpired reports whether the credential has expired at now.
func (c *Credential) IsExpired(now time.Time) bool {
	return c.ExpiresAt != 0 && now.UnixMilli() > c.ExpiresAt
}

// MaskToken masks a credential token for logs: tsck_ABC...xyz.
func MaskToken(tok string) string {
	if !strings.HasPrefix(tok, CredentialTokenPrefix) || len(tok) < len(CredentialTokenPrefix)+7 {
		return "***REDACTED***"
	}
	body := tok[len(CredentialTokenPrefix):]
	return CredentialTokenPrefix + body[:3] + "..." + body[len(body)-3:]
}
