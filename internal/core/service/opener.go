package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// Opener surfaces a join URL to its participant.
type Opener interface {
	Open(ctx context.Context, joinURL string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, joinURL string) error

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, joinURL string) error {
	return f(ctx, joinURL)
}

// URLBuilder renders join URLs as {base}/{partition}?token={token}.
type URLBuilder struct {
	Base string
}

// Build returns the join URL for token in partition p.
func (b URLBuilder) Build(p domain.PartitionID, token string) string {
	q := url.Values{"token": []string{token}}
	return strings.TrimRight(b.Base, "/") + "/" + p.String() + "?" + q.Encode()
}

// LogOpener logs join URLs with the token masked.
type LogOpener struct {
	Logger *slog.Logger
}

// Open logs joinURL.
func (o LogOpener) Open(ctx context.Context, joinURL string) error {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "join url ready", "url", maskJoinURL(joinURL))
	return nil
}

func maskJoinURL(joinURL string) string {
	u, err := url.Parse(joinURL)
	if err != nil {
		return "***REDACTED***"
	}
	q := u.Query()
	if tok := q.Get("token"); tok != "" {
		q.Set("token", domain.MaskToken(tok))
		u.RawQuery = q.Encode()
	}
	return u.String()
}
