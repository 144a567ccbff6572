package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tickstate-go/internal/cli/output"
	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/server/httpserver/handler"
)

// AdminCommand returns the admin subcommand group. Every subcommand calls
// the server named by --server.
func AdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Call the tickstate-server admin API",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: adminHealth,
			},
			{
				Name:   "partitions",
				Usage:  "List partitions with a log",
				Action: adminPartitions,
			},
			{
				Name:      "log",
				Usage:     "Dump a partition log",
				ArgsUsage: "PARTITION",
				Action:    adminLog,
			},
			{
				Name:      "unload",
				Usage:     "Release a partition's append handle",
				ArgsUsage: "PARTITION",
				Action:    adminUnload,
			},
			{
				Name:      "fork",
				Usage:     "Fork a partition on the server",
				ArgsUsage: "PARTITION",
				Action:    adminFork,
			},
			{
				Name:      "verify",
				Usage:     "Verify a credential token",
				ArgsUsage: "TOKEN",
				Action:    adminVerify,
			},
		},
	}
}

type remoteForkView handler.ForkResponse

func (v remoteForkView) Table() *output.Table {
	t := output.NewTable("USER", "CREDENTIAL", "JOIN URL")
	for _, e := range v.Entries {
		t.AddRow(e.UserID, e.CredentialID, e.JoinURL)
	}
	for _, f := range v.Failures {
		t.AddRow(f.UserID, "-", "failed: "+f.Error)
	}
	return t
}

func adminHealth(c *cli.Context) error {
	var out map[string]string
	if err := newClient(c).Get(c.Context, "/health", &out); err != nil {
		return err
	}
	return render(c, out)
}

func adminPartitions(c *cli.Context) error {
	var out handler.ListPartitionsResponse
	if err := newClient(c).Get(c.Context, "/admin/v1/partitions", &out); err != nil {
		return err
	}
	return render(c, partitionList(out.Partitions))
}

func adminLog(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	p, err := partitionArg(c, 0)
	if err != nil {
		return err
	}

	var out handler.LogResponse
	if err := newClient(c).Get(c.Context, "/admin/v1/partitions/"+p.String()+"/log", &out); err != nil {
		return err
	}

	view := logDumpView{Partition: out.Partition, Corrupted: out.Corrupted, Records: make([]recordView, 0, len(out.Records))}
	for i, r := range out.Records {
		view.Records = append(view.Records, describeRecord(i, domain.Record{Time: r.Time, Payload: r.Payload}))
	}
	return render(c, view)
}

func adminUnload(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	p, err := partitionArg(c, 0)
	if err != nil {
		return err
	}
	if err := newClient(c).Post(c.Context, "/admin/v1/partitions/"+p.String()+"/unload", nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(writer(c), "unloaded %s\n", p)
	return nil
}

func adminFork(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	p, err := partitionArg(c, 0)
	if err != nil {
		return err
	}

	var out handler.ForkResponse
	if err := newClient(c).Post(c.Context, "/admin/v1/partitions/"+p.String()+"/fork", nil, &out); err != nil {
		return err
	}
	return render(c, remoteForkView(out))
}

func adminVerify(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}

	var out handler.VerifyCredentialResponse
	req := handler.VerifyCredentialRequest{Token: c.Args().First()}
	if err := newClient(c).Post(c.Context, "/admin/v1/credentials/verify", req, &out); err != nil {
		return err
	}
	return render(c, out)
}
