package service

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// CredentialRepository defines the storage interface for issued credentials.
//
// Lookups of unknown or expired credentials return domain.ErrCredentialInvalid.
type CredentialRepository interface {
	Save(ctx context.Context, c *domain.Credential) error
	GetByTokenHash(ctx context.Context, hash string) (*domain.Credential, error)
	ListByPartition(ctx context.Context, p domain.PartitionID) ([]*domain.Credential, error)
	Delete(ctx context.Context, id string) error
}

// Issuer mints an access credential for one identity in one partition.
type Issuer interface {
	Issue(ctx context.Context, p domain.PartitionID, id domain.Identity) (*domain.Credential, error)
}

// IssuerFunc adapts a function to Issuer.
type IssuerFunc func(ctx context.Context, p domain.PartitionID, id domain.Identity) (*domain.Credential, error)

// Issue calls f.
func (f IssuerFunc) Issue(ctx context.Context, p domain.PartitionID, id domain.Identity) (*domain.Credential, error) {
	return f(ctx, p, id)
}

// IssuerConfig holds configuration for TokenIssuer.
type IssuerConfig struct {
	// TTL is the credential lifetime. Zero means credentials never expire.
	TTL time.Duration
}

// DefaultIssuerConfig returns default configuration.
func DefaultIssuerConfig() *IssuerConfig {
	return &IssuerConfig{TTL: 24 * time.Hour}
}

// TokenIssuer mints tsck_ tokens and records their hashes in a repository.
type TokenIssuer struct {
	repo CredentialRepository
	ttl  time.Duration
	now  func() time.Time

	issued   prometheus.Counter
	verified *prometheus.CounterVec
}

// NewTokenIssuer creates a TokenIssuer with the given repository and config.
func NewTokenIssuer(repo CredentialRepository, config *IssuerConfig) *TokenIssuer {
	if config == nil {
		config = DefaultIssuerConfig()
	}
	return &TokenIssuer{
		repo: repo,
		ttl:  config.TTL,
		now:  time.Now,
	}
}

// Issue mints a credential for id in partition p. The returned credential
// carries the plaintext token; only its hash is stored.
func (s *TokenIssuer) Issue(ctx context.Context, p domain.PartitionID, id domain.Identity) (*domain.Credential, error) {
	c, err := domain.NewCredential(p, id.ID, s.ttl)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	if s.issued != nil {
		s.issued.Inc()
	}
	return c, nil
}

// Verify resolves a plaintext token to its credential.
//
// Returns domain.ErrCredentialInvalid for unknown tokens and
// domain.ErrCredentialExpired once the credential's expiry has passed.
func (s *TokenIssuer) Verify(ctx context.Context, token string) (*domain.Credential, error) {
	c, err := s.verify(ctx, token)
	if s.verified != nil {
		s.verified.WithLabelValues(verifyOutcome(err)).Inc()
	}
	return c, err
}

func (s *TokenIssuer) verify(ctx context.Context, token string) (*domain.Credential, error) {
	if token == "" {
		return nil, domain.ErrCredentialInvalid
	}
	c, err := s.repo.GetByTokenHash(ctx, domain.HashCredentialToken(token))
	if err != nil {
		return nil, err
	}
	if c.IsExpired(s.now()) {
		return nil, domain.ErrCredentialExpired
	}
	return c, nil
}

// Revoke deletes every credential of partition p and returns how many were removed.
func (s *TokenIssuer) Revoke(ctx context.Context, p domain.PartitionID) (int, error) {
	list, err := s.repo.ListByPartition(ctx, p)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range list {
		err := s.repo.Delete(ctx, c.ID)
		if errors.Is(err, domain.ErrCredentialInvalid) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// RegisterMetrics registers issuer counters. Returns the issuer for chaining.
func (s *TokenIssuer) RegisterMetrics(registry prometheus.Registerer) *TokenIssuer {
	s.issued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tickstate",
		Subsystem: "credential",
		Name:      "issued_total",
		Help:      "Credentials minted",
	})
	s.verified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tickstate",
		Subsystem: "credential",
		Name:      "verified_total",
		Help:      "Credential verifications by outcome",
	}, []string{"outcome"})
	registry.MustRegister(s.issued, s.verified)
	return s
}

func verifyOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrCredentialExpired):
		return "expired"
	case errors.Is(err, domain.ErrCredentialInvalid):
		return "invalid"
	default:
		return "error"
	}
}
