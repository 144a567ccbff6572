package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// Credential registry key layout:
//
//	cred/id/<id>                  -> credential JSON
//	cred/hash/<token_hash>        -> id
//	cred/part/<partition>/<id>    -> empty
const (
	credIDPrefix   = "cred/id/"
	credHashPrefix = "cred/hash/"
	credPartPrefix = "cred/part/"
)

// CredentialStore persists issued credentials in a KVEngine. Only token
// hashes are stored. Credentials with an expiry are written with a
// matching TTL so the engine drops them on its own.
type CredentialStore struct {
	kv KVEngine
}

// NewCredentialStore creates a credential registry on top of kv.
func NewCredentialStore(kv KVEngine) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// Save stores c and its hash and partition indexes in one transaction.
func (s *CredentialStore) Save(ctx context.Context, c *domain.Credential) error {
	if c == nil || c.ID == "" || c.TokenHash == "" {
		return domain.ErrInvalidArgument.WithDetails("credential id and token hash are required")
	}
	value, err := json.Marshal(c)
	if err != nil {
		return domain.ErrInternal.WithCause(err)
	}

	var ttl time.Duration
	if c.ExpiresAt != 0 {
		ttl = time.Until(time.UnixMilli(c.ExpiresAt))
		if ttl <= 0 {
			return domain.ErrCredentialExpired
		}
	}

	err = s.kv.Update(ctx, func(w KVWriter) error {
		if err := w.Set(credIDKey(c.ID), value, ttl); err != nil {
			return err
		}
		if err := w.Set(credHashKey(c.TokenHash), []byte(c.ID), ttl); err != nil {
			return err
		}
		return w.Set(credPartKey(c.Partition, c.ID), nil, ttl)
	})
	if err != nil {
		return domain.ErrIOFailure.WithCause(err)
	}
	return nil
}

// Get returns the credential with the given id.
func (s *CredentialStore) Get(ctx context.Context, id string) (*domain.Credential, error) {
	value, err := s.kv.Get(ctx, credIDKey(id))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrCredentialInvalid
		}
		return nil, domain.ErrIOFailure.WithCause(err)
	}
	var c domain.Credential
	if err := json.Unmarshal(value, &c); err != nil {
		return nil, domain.ErrInternal.WithDetails("decode credential").WithCause(err)
	}
	return &c, nil
}

// GetByTokenHash resolves a credential by its token hash.
func (s *CredentialStore) GetByTokenHash(ctx context.Context, hash string) (*domain.Credential, error) {
	id, err := s.kv.Get(ctx, credHashKey(hash))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrCredentialInvalid
		}
		return nil, domain.ErrIOFailure.WithCause(err)
	}
	return s.Get(ctx, string(id))
}

// ListByPartition returns the partition's credentials in issue order.
func (s *CredentialStore) ListByPartition(ctx context.Context, p domain.PartitionID) ([]*domain.Credential, error) {
	prefix := []byte(credPartPrefix + p.String() + "/")
	var ids []string
	err := s.kv.Scan(ctx, prefix, func(key, _ []byte) bool {
		ids = append(ids, string(key[len(prefix):]))
		return true
	})
	if err != nil {
		return nil, domain.ErrIOFailure.WithCause(err)
	}

	out := make([]*domain.Credential, 0, len(ids))
	for _, id := range ids {
		c, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrCredentialInvalid) {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortCredentials(out)
	return out, nil
}

// Delete removes a credential and its indexes.
func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.kv.Update(ctx, func(w KVWriter) error {
		if err := w.Delete(credIDKey(c.ID)); err != nil {
			return err
		}
		if err := w.Delete(credHashKey(c.TokenHash)); err != nil {
			return err
		}
		return w.Delete(credPartKey(c.Partition, c.ID))
	})
	if err != nil {
		return domain.ErrIOFailure.WithCause(err)
	}
	return nil
}

// sortCredentials orders by issue time, then id. Ids are ULIDs, so the
// tie-break follows mint order.
func sortCredentials(cs []*domain.Credential) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].IssuedAt != cs[j].IssuedAt {
			return cs[i].IssuedAt < cs[j].IssuedAt
		}
		return cs[i].ID < cs[j].ID
	})
}

func credIDKey(id string) []byte {
	return []byte(credIDPrefix + id)
}

func credHashKey(hash string) []byte {
	return []byte(credHashPrefix + hash)
}

func credPartKey(p domain.PartitionID, id string) []byte {
	return []byte(credPartPrefix + p.String() + "/" + id)
}
