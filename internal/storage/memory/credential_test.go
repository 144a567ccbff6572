package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

func TestCredentialStore_CRUD(t *testing.T) {
	store := NewCredentialStore()
	ctx := context.Background()

	c, err := domain.NewCredential(5, "alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByTokenHash(ctx, c.TokenHash)
	if err != nil {
		t.Fatalf("GetByTokenHash: %v", err)
	}
	if got.ID != c.ID || got.UserID != "alice" {
		t.Fatalf("got %+v", got)
	}
	if got.Token != "" {
		t.Fatal("plaintext token stored")
	}

	// Returned values are copies.
	got.UserID = "mallory"
	again, _ := store.Get(ctx, c.ID)
	if again.UserID != "alice" {
		t.Fatalf("store mutated through returned pointer")
	}

	if err := store.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByTokenHash(ctx, c.TokenHash); !errors.Is(err, domain.ErrCredentialInvalid) {
		t.Fatalf("after delete err = %v", err)
	}
	if err := store.Delete(ctx, c.ID); !errors.Is(err, domain.ErrCredentialInvalid) {
		t.Fatalf("Delete(missing) err = %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("Count = %d, want 0", store.Count())
	}
}

func TestCredentialStore_Expiry(t *testing.T) {
	store := NewCredentialStore()
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	c, err := domain.NewCredential(5, "alice", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, c); err != nil {
		t.Fatal(err)
	}

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := store.Get(ctx, c.ID); !errors.Is(err, domain.ErrCredentialInvalid) {
		t.Fatalf("expired Get err = %v", err)
	}
	list, _ := store.ListByPartition(ctx, 5)
	if len(list) != 0 {
		t.Fatalf("expired credential listed")
	}
	if err := store.Save(ctx, c); !errors.Is(err, domain.ErrCredentialExpired) {
		t.Fatalf("Save(expired) err = %v", err)
	}
}

func TestCredentialStore_ListByPartitionOrder(t *testing.T) {
	store := NewCredentialStore()
	ctx := context.Background()

	users := []string{"alice", "bob", "carol", "dave"}
	for _, u := range users {
		c, err := domain.NewCredential(9, u, 0)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Save(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListByPartition(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(users) {
		t.Fatalf("len = %d, want %d", len(list), len(users))
	}
	for i, c := range list {
		if c.UserID != users[i] {
			t.Errorf("list[%d] = %s, want %s", i, c.UserID, users[i])
		}
	}
}

func TestCredentialStore_Concurrent(t *testing.T) {
	store := NewCredentialStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := domain.NewCredential(1, "user", 0)
			if err != nil {
				t.Error(err)
				return
			}
			if err := store.Save(ctx, c); err != nil {
				t.Error(err)
			}
			if _, err := store.GetByTokenHash(ctx, c.TokenHash); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if store.Count() != 50 {
		t.Fatalf("Count = %d, want 50", store.Count())
	}
}
