package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tickstate-go/internal/cli/output"
	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/core/service"
	"github.com/yndnr/tickstate-go/internal/server/config"
	"github.com/yndnr/tickstate-go/internal/storage"
	"github.com/yndnr/tickstate-go/internal/storage/snapshot"
)

// ForkCommand returns the offline fork command.
func ForkCommand() *cli.Command {
	return &cli.Command{
		Name:      "fork",
		Usage:     "Continue a partition's session in a new partition and print join URLs",
		ArgsUsage: "PARTITION",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "join-base",
				Usage:   "Join URL base",
				EnvVars: []string{"TICKSTATE_FORK__JOIN_BASE_URL"},
				Value:   config.DefaultJoinBaseURL,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Credential lifetime (0 for no expiry)",
				Value: config.DefaultCredentialTTL,
			},
			&cli.StringFlag{
				Name:    "snapshot-secret",
				Usage:   "Secret for encrypted snapshots",
				EnvVars: []string{"TICKSTATE_SECURITY__SNAPSHOT_SECRET"},
			},
			&cli.StringFlag{
				Name:    "snapshot-cipher",
				Usage:   "Snapshot cipher: aes-gcm or chacha20-poly1305",
				EnvVars: []string{"TICKSTATE_SECURITY__SNAPSHOT_CIPHER"},
			},
		},
		Action: forkRun,
	}
}

// forkView is the printed fork outcome.
type forkView struct {
	Source    domain.PartitionID `json:"source"`
	Partition domain.PartitionID `json:"partition"`
	Entries   []forkEntryView    `json:"entries"`
}

type forkEntryView struct {
	UserID       string `json:"user_id"`
	CredentialID string `json:"credential_id,omitempty"`
	JoinURL      string `json:"join_url,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (v forkView) Table() *output.Table {
	t := output.NewTable("USER", "CREDENTIAL", "JOIN URL")
	for _, e := range v.Entries {
		if e.Error != "" {
			t.AddRow(e.UserID, "-", "failed: "+e.Error)
			continue
		}
		t.AddRow(e.UserID, e.CredentialID, e.JoinURL)
	}
	return t
}

func forkRun(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	src, err := partitionArg(c, 0)
	if err != nil {
		return err
	}

	log := cliLogger(c)
	cfg := storage.DefaultConfig(ParseGlobalFlags(c).DataDir)
	cfg.Logger = log
	cfg.Encryption = snapshot.EncryptionConfig{
		Secret:    []byte(c.String("snapshot-secret")),
		Algorithm: c.String("snapshot-cipher"),
	}
	engine, err := storage.New(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	forker, err := service.NewForker(service.ForkerConfig{
		Logs:      engine.Logs,
		Snapshots: engine.Snapshots,
		Issuer:    service.NewTokenIssuer(engine.Credentials, &service.IssuerConfig{TTL: c.Duration("ttl")}),
		// URLs are printed with the result.
		Opener: service.OpenerFunc(func(context.Context, string) error { return nil }),
		URLs:   service.URLBuilder{Base: c.String("join-base")},
		Logger: log,
	})
	if err != nil {
		return err
	}

	res, err := forker.Fork(c.Context, src)
	if err != nil {
		return err
	}

	view := forkView{Source: res.Source, Partition: res.Partition}
	for _, e := range res.Entries {
		view.Entries = append(view.Entries, forkEntryView{
			UserID:       e.Identity.ID,
			CredentialID: e.Credential.ID,
			JoinURL:      e.JoinURL,
		})
	}
	for _, f := range res.Failures {
		view.Entries = append(view.Entries, forkEntryView{UserID: f.Identity.ID, Error: f.Err.Error()})
	}
	if err := render(c, view); err != nil {
		return err
	}
	if len(res.Failures) > 0 {
		return fmt.Errorf("%d participant(s) could not be admitted", len(res.Failures))
	}
	return nil
}
