package command

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tickstate-go/internal/cli/output"
	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/storage"
	"github.com/yndnr/tickstate-go/internal/storage/partlog"
)

// LogCommand returns the log subcommand group.
func LogCommand() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Inspect and write partition logs in the data directory",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List partitions that have a log",
				Action: logList,
			},
			{
				Name:      "dump",
				Usage:     "Print every record of a partition log",
				ArgsUsage: "PARTITION",
				Action:    logDump,
			},
			{
				Name:      "append",
				Usage:     "Append one record to a partition log",
				ArgsUsage: "PARTITION",
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:  "time",
						Usage: "Record time in Unix milliseconds (default: now)",
					},
					&cli.StringFlag{
						Name:  "init",
						Usage: "Write an init record for this identity JSON",
					},
					&cli.StringFlag{
						Name:  "init-args",
						Usage: "Hex init args for --init",
					},
					&cli.StringFlag{
						Name:  "join",
						Usage: "Write a join record for this identity JSON",
					},
					&cli.StringFlag{
						Name:  "payload",
						Usage: "Raw hex payload",
					},
				},
				Action: logAppend,
			},
		},
	}
}

// Record kinds shown by log dump.
const (
	recordInit   = "init"
	recordJoin   = "join"
	recordAction = "action"
)

// recordView is one decoded log record.
type recordView struct {
	Index   int    `json:"index"`
	Time    uint64 `json:"time"`
	Kind    string `json:"kind"`
	User    string `json:"user,omitempty"`
	Method  *byte  `json:"method,omitempty"`
	Size    int    `json:"size"`
	Payload string `json:"payload"`
}

// logDumpView is the log dump result.
type logDumpView struct {
	Partition domain.PartitionID `json:"partition"`
	Records   []recordView       `json:"records"`
	Corrupted bool               `json:"corrupted,omitempty"`
}

func (v logDumpView) Table() *output.Table {
	t := output.NewTable("#", "TIME", "KIND", "DETAIL", "SIZE")
	for _, r := range v.Records {
		detail := r.User
		if r.Method != nil {
			detail = fmt.Sprintf("method 0x%02x", *r.Method)
		}
		t.AddRow(r.Index, r.Time, r.Kind, detail, r.Size)
	}
	if v.Corrupted {
		t.AddRow("!", "-", "truncated", "log ends in a partial record", "-")
	}
	return t
}

type partitionList []domain.PartitionID

func (l partitionList) Table() *output.Table {
	t := output.NewTable("PARTITION", "DECIMAL")
	for _, p := range l {
		t.AddRow(p.String(), uint64(p))
	}
	return t
}

// openLogs opens the partition log directory under --data-dir.
func openLogs(c *cli.Context) (*partlog.Store, error) {
	dir := filepath.Join(ParseGlobalFlags(c).DataDir, storage.DefaultLogDir)
	return partlog.NewStore(partlog.DefaultConfig(dir), cliLogger(c))
}

func partitionArg(c *cli.Context, i int) (domain.PartitionID, error) {
	return domain.ParsePartitionID(c.Args().Get(i))
}

func logList(c *cli.Context) error {
	logs, err := openLogs(c)
	if err != nil {
		return err
	}
	defer logs.Close()

	parts, err := logs.List()
	if err != nil {
		return err
	}
	if parts == nil {
		parts = []domain.PartitionID{}
	}
	return render(c, partitionList(parts))
}

func logDump(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	p, err := partitionArg(c, 0)
	if err != nil {
		return err
	}
	logs, err := openLogs(c)
	if err != nil {
		return err
	}
	defer logs.Close()

	records, err := logs.Load(p)
	corrupted := errors.Is(err, domain.ErrLogCorruption)
	if err != nil && !corrupted {
		return err
	}

	view := logDumpView{Partition: p, Records: make([]recordView, 0, len(records)), Corrupted: corrupted}
	for i, rec := range records {
		view.Records = append(view.Records, describeRecord(i, rec))
	}
	return render(c, view)
}

// describeRecord classifies a record. The first record is the init record.
func describeRecord(i int, rec domain.Record) recordView {
	v := recordView{
		Index:   i,
		Time:    rec.Time,
		Size:    len(rec.Payload),
		Payload: hex.EncodeToString(rec.Payload),
	}
	switch {
	case i == 0:
		v.Kind = recordInit
		if id, _, err := domain.ParseInitPayload(rec.Payload); err == nil {
			v.User = id.ID
		}
	case domain.IsJoinPayload(rec.Payload):
		v.Kind = recordJoin
		if id, err := domain.ParseJoinPayload(rec.Payload); err == nil {
			v.User = id.ID
		}
	default:
		v.Kind = recordAction
		if len(rec.Payload) > 0 {
			m := rec.Payload[0]
			v.Method = &m
		}
	}
	return v
}

func logAppend(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	p, err := partitionArg(c, 0)
	if err != nil {
		return err
	}
	payload, err := appendPayload(c)
	if err != nil {
		return err
	}

	ts := c.Uint64("time")
	if ts == 0 {
		ts = uint64(time.Now().UnixMilli())
	}

	logs, err := openLogs(c)
	if err != nil {
		return err
	}
	defer logs.Close()

	if err := logs.Append(p, ts, payload); err != nil {
		return err
	}
	fmt.Fprintf(writer(c), "appended %d bytes to %s at %d\n", len(payload), p, ts)
	return nil
}

// appendPayload builds the record payload from exactly one of --init,
// --join or --payload.
func appendPayload(c *cli.Context) ([]byte, error) {
	set := 0
	for _, name := range []string{"init", "join", "payload"} {
		if c.IsSet(name) {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of --init, --join or --payload is required")
	}

	switch {
	case c.IsSet("init"):
		id, err := domain.ParseIdentity([]byte(c.String("init")))
		if err != nil {
			return nil, err
		}
		identity, err := domain.MarshalIdentity(id)
		if err != nil {
			return nil, err
		}
		args, err := hex.DecodeString(c.String("init-args"))
		if err != nil {
			return nil, fmt.Errorf("--init-args: %w", err)
		}
		return domain.EncodeInitPayload(identity, args)
	case c.IsSet("join"):
		id, err := domain.ParseIdentity([]byte(c.String("join")))
		if err != nil {
			return nil, err
		}
		identity, err := domain.MarshalIdentity(id)
		if err != nil {
			return nil, err
		}
		return domain.EncodeJoinPayload(identity)
	default:
		payload, err := hex.DecodeString(c.String("payload"))
		if err != nil {
			return nil, fmt.Errorf("--payload: %w", err)
		}
		return payload, nil
	}
}
