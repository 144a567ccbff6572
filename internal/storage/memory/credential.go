package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// CredentialStore keeps issued credentials in process memory.
type CredentialStore struct {
	mu sync.RWMutex

	// Primary index: credential id -> credential
	byID map[string]*domain.Credential

	// Secondary index: token hash -> credential id
	byHash map[string]string

	// Secondary index: partition -> credential ids
	byPartition map[domain.PartitionID]map[string]struct{}

	now func() time.Time
}

// NewCredentialStore creates an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		byID:        make(map[string]*domain.Credential),
		byHash:      make(map[string]string),
		byPartition: make(map[domain.PartitionID]map[string]struct{}),
		now:         time.Now,
	}
}

// Save stores a copy of c. The plaintext token is dropped.
func (s *CredentialStore) Save(_ context.Context, c *domain.Credential) error {
	if c == nil || c.ID == "" || c.TokenHash == "" {
		return domain.ErrInvalidArgument.WithDetails("credential id and token hash are required")
	}
	if c.IsExpired(s.now()) {
		return domain.ErrCredentialExpired
	}

	stored := *c
	stored.Token = ""

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[stored.ID] = &stored
	s.byHash[stored.TokenHash] = stored.ID
	set, ok := s.byPartition[stored.Partition]
	if !ok {
		set = make(map[string]struct{})
		s.byPartition[stored.Partition] = set
	}
	set[stored.ID] = struct{}{}
	return nil
}

// Get returns the credential with the given id.
func (s *CredentialStore) Get(_ context.Context, id string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(id)
}

// GetByTokenHash resolves a credential by its token hash.
func (s *CredentialStore) GetByTokenHash(_ context.Context, hash string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, domain.ErrCredentialInvalid
	}
	return s.getLocked(id)
}

// ListByPartition returns the partition's unexpired credentials in issue order.
func (s *CredentialStore) ListByPartition(_ context.Context, p domain.PartitionID) ([]*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Credential, 0, len(s.byPartition[p]))
	for id := range s.byPartition[p] {
		c, err := s.getLocked(id)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssuedAt != out[j].IssuedAt {
			return out[i].IssuedAt < out[j].IssuedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a credential and its indexes.
func (s *CredentialStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return domain.ErrCredentialInvalid
	}
	delete(s.byID, id)
	delete(s.byHash, c.TokenHash)
	if set := s.byPartition[c.Partition]; set != nil {
		delete(set, id)
		// Clean up empty sets
		if len(set) == 0 {
			delete(s.byPartition, c.Partition)
		}
	}
	return nil
}

// Count returns the number of stored credentials, expired ones included.
func (s *CredentialStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// getLocked treats expired entries as missing, like the TTL-backed registry.
func (s *CredentialStore) getLocked(id string) (*domain.Credential, error) {
	c, ok := s.byID[id]
	if !ok || c.IsExpired(s.now()) {
		return nil, domain.ErrCredentialInvalid
	}
	clone := *c
	return &clone, nil
}
