package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/storage/memory"
	"github.com/yndnr/tickstate-go/internal/storage/partlog"
	"github.com/yndnr/tickstate-go/internal/storage/snapshot"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testStores struct {
	logs  *partlog.Store
	snaps *snapshot.Store
	creds *memory.CredentialStore
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	dir := t.TempDir()
	logs, err := partlog.NewStore(partlog.DefaultConfig(dir+"/logs"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = logs.Close() })

	snaps, err := snapshot.NewStore(snapshot.Config{Dir: dir + "/snapshots"}, discardLogger())
	require.NoError(t, err)

	return &testStores{logs: logs, snaps: snaps, creds: memory.NewCredentialStore()}
}

func identity(id string) domain.Identity {
	return domain.Identity{ID: id, Claims: map[string]any{"id": id}}
}

var errBoom = errors.New("boom")

func TestTokenIssuer_IssueVerify(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCredentialStore()
	issuer := NewTokenIssuer(repo, &IssuerConfig{TTL: 0})

	cred, err := issuer.Issue(ctx, 12, identity("alice"))
	require.NoError(t, err)
	require.Equal(t, domain.PartitionID(12), cred.Partition)
	require.Equal(t, "alice", cred.UserID)
	require.Contains(t, cred.Token, domain.CredentialTokenPrefix)

	got, err := issuer.Verify(ctx, cred.Token)
	require.NoError(t, err)
	require.Equal(t, cred.ID, got.ID)

	_, err = issuer.Verify(ctx, "tsck_nope")
	require.ErrorIs(t, err, domain.ErrCredentialInvalid)
	_, err = issuer.Verify(ctx, "")
	require.ErrorIs(t, err, domain.ErrCredentialInvalid)

	_, err = issuer.Issue(ctx, 12, domain.Identity{})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestTokenIssuer_Revoke(t *testing.T) {
	ctx := context.Background()
	issuer := NewTokenIssuer(memory.NewCredentialStore(), nil)

	a, err := issuer.Issue(ctx, 3, identity("alice"))
	require.NoError(t, err)
	_, err = issuer.Issue(ctx, 3, identity("bob"))
	require.NoError(t, err)
	other, err := issuer.Issue(ctx, 4, identity("carol"))
	require.NoError(t, err)

	n, err := issuer.Revoke(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = issuer.Verify(ctx, a.Token)
	require.ErrorIs(t, err, domain.ErrCredentialInvalid)
	_, err = issuer.Verify(ctx, other.Token)
	require.NoError(t, err)
}

func TestURLBuilder(t *testing.T) {
	b := URLBuilder{Base: "https://play.example.com/join/"}
	got := b.Build(domain.PartitionID(36), "tsck_abc-_XYZ")
	require.Equal(t, "https://play.example.com/join/10?token=tsck_abc-_XYZ", got)

	masked := maskJoinURL(got)
	require.NotContains(t, masked, "abc-_XYZ")
}

func TestOpenerFunc(t *testing.T) {
	var seen string
	o := OpenerFunc(func(_ context.Context, u string) error {
		seen = u
		return nil
	})
	require.NoError(t, o.Open(context.Background(), "x"))
	require.Equal(t, "x", seen)
	require.NoError(t, LogOpener{Logger: discardLogger()}.Open(context.Background(), "http://h/1?token=tsck_abcdefghijk"))
}
