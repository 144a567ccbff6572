package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/tickstate-go/internal/cli/output"
	"github.com/yndnr/tickstate-go/internal/core/schema"
)

// SchemaCommand returns the schema subcommand group.
func SchemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Inspect YAML types files",
		Subcommands: []*cli.Command{
			{
				Name:      "fingerprint",
				Aliases:   []string{"fp"},
				Usage:     "Print the state type's fingerprint as stored in snapshot headers",
				ArgsUsage: "TYPES.yaml",
				Action:    schemaFingerprint,
			},
		},
	}
}

type fingerprintView struct {
	State       string `json:"state"`
	Fingerprint string `json:"fingerprint"`
	Layout      string `json:"layout"`
}

func (v fingerprintView) Table() *output.Table {
	t := output.NewTable("STATE", "FINGERPRINT")
	t.AddRow(v.State, v.Fingerprint)
	return t
}

func schemaFingerprint(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	t, err := schema.LoadFile(c.Args().First())
	if err != nil {
		return err
	}
	return render(c, fingerprintView{
		State:       t.Name(),
		Fingerprint: schema.FingerprintString(t),
		Layout:      t.String(),
	})
}
