package command

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tickstate-go/internal/cli/output"
	"github.com/yndnr/tickstate-go/internal/core/delta"
	"github.com/yndnr/tickstate-go/internal/core/schema"
)

func schemaFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "schema",
		Aliases:  []string{"t"},
		Usage:    "YAML types file declaring the state type",
		Required: true,
	}
}

// DiffCommand returns the diff command.
func DiffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Encode the delta between two JSON snapshots",
		ArgsUsage: "PREV.json CUR.json",
		Flags:     []cli.Flag{schemaFlag()},
		Action:    diffRun,
	}
}

// PatchCommand returns the patch command.
func PatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "patch",
		Usage:     "Apply a hex-encoded delta to a JSON snapshot and print the result",
		ArgsUsage: "STATE.json DELTA_HEX",
		Flags:     []cli.Flag{schemaFlag()},
		Action:    patchRun,
	}
}

// diffView is the diff result.
type diffView struct {
	Bytes int    `json:"bytes"`
	Delta string `json:"delta"`
	View  string `json:"view"`
}

func (v diffView) Table() *output.Table {
	t := output.NewTable("BYTES", "DELTA", "VIEW")
	t.AddRow(v.Bytes, v.Delta, v.View)
	return t
}

// readSnapshot decodes a JSON file into a node of type t.
func readSnapshot(t *schema.Type, path string) (*schema.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	n, err := schema.FromAny(t, v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

func diffRun(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	t, err := schema.LoadFile(c.String("schema"))
	if err != nil {
		return err
	}
	prev, err := readSnapshot(t, c.Args().Get(0))
	if err != nil {
		return err
	}
	cur, err := readSnapshot(t, c.Args().Get(1))
	if err != nil {
		return err
	}

	d, err := delta.Diff(t, prev, cur)
	if err != nil {
		return err
	}
	encoded, err := delta.Encode(t, d)
	if err != nil {
		return err
	}
	return render(c, diffView{Bytes: len(encoded), Delta: hex.EncodeToString(encoded), View: d.String()})
}

func patchRun(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	t, err := schema.LoadFile(c.String("schema"))
	if err != nil {
		return err
	}
	state, err := readSnapshot(t, c.Args().Get(0))
	if err != nil {
		return err
	}
	encoded, err := hex.DecodeString(strings.TrimSpace(c.Args().Get(1)))
	if err != nil {
		return fmt.Errorf("delta: %w", err)
	}

	d, err := delta.Decode(t, encoded)
	if err != nil {
		return err
	}
	next, err := delta.Patch(t, state, d)
	if err != nil {
		return err
	}
	return render(c, schema.ToAny(t, next))
}
