package hbasectlcmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.ebuer.dev/hbase/batch"
	mbp "go.ebuer.dev/hbase/mainboilerplate"
	pb "go.ebuer.dev/hbase/protocol"
	"gopkg.in/yaml.v2"
)

// rowDoc is the YAML form of a row, read by "rows put" and written by
// "rows get" and "rows scan".
type rowDoc struct {
	Row   string    `yaml:"row"`
	Cells []cellDoc `yaml:"cells"`
}

type cellDoc struct {
	Family    string `yaml:"family"`
	Qualifier string `yaml:"qualifier"`
	Value     string `yaml:"value"`
}

type cmdRowsPut struct {
	InputConfig
	Table string   `long:"table" short:"t" required:"true" description:"Name of the table"`
	Row   string   `long:"row" short:"r" description:"Row key of --cell values"`
	Cells []string `long:"cell" short:"c" description:"Cell of --row, as family:qualifier=value. May be repeated"`
}

type cmdRowsGet struct {
	OutputConfig
	Table    string   `long:"table" short:"t" required:"true" description:"Name of the table"`
	Rows     []string `long:"row" short:"r" required:"true" description:"Row key to read. May be repeated"`
	Families []string `long:"family" short:"f" description:"Column family to read. May be repeated. If empty, all families are read"`
}

type cmdRowsDelete struct {
	Table    string   `long:"table" short:"t" required:"true" description:"Name of the table"`
	Rows     []string `long:"row" short:"r" required:"true" description:"Row key to delete. May be repeated"`
	Families []string `long:"family" short:"f" description:"Column family to delete. May be repeated. If empty, entire rows are deleted"`
}

type cmdRowsScan struct {
	OutputConfig
	Table    string   `long:"table" short:"t" required:"true" description:"Name of the table"`
	Start    string   `long:"start" description:"First row key of the scan (inclusive). If empty, the scan begins at the first row"`
	Stop     string   `long:"stop" description:"Last row key of the scan (exclusive). If empty, the scan ends after the last row"`
	Families []string `long:"family" short:"f" description:"Column family to read. May be repeated. If empty, all families are read"`
	Limit    int      `long:"limit" short:"l" description:"Maximum number of rows to read. If zero, all rows of the range are read"`
}

func init() {
	CommandRegistry.AddCommand("rows", "put", "Write rows of a table", `
Write cells of one or more rows.

A single row may be given with --row and one or more --cell flags:
>    hbasectl rows put --table user --row rk_001 --cell base_info:name=alice

Or, many rows may be given as a YAML document with --input:

  - row: rk_001
    cells:
      - family: base_info
        qualifier: name
        value: alice

Rows are written in chunks. Rows of chunks written before a failure remain
written.
`, &cmdRowsPut{})

	CommandRegistry.AddCommand("rows", "get", "Read rows of a table", `
Read cells of each --row. Rows which don't exist are omitted.

Results can be output in a variety of --format options:
yaml:  Prints a YAML sequence of rows, compatible with "rows put".
table: Prints as a table having a line for each cell.
`, &cmdRowsGet{})

	CommandRegistry.AddCommand("rows", "delete", "Delete rows of a table", `
Delete each --row, or only the given --family cells of each row.
`, &cmdRowsDelete{})

	CommandRegistry.AddCommand("rows", "scan", "Scan a range of rows", `
Read rows having keys in the range [--start, --stop), in row key order.

Results can be output in a variety of --format options:
yaml:  Prints a YAML sequence of rows, compatible with "rows put".
table: Prints as a table having a line for each cell.
`, &cmdRowsScan{})
}

func (cmd *cmdRowsPut) Execute([]string) error {
	defer startup()()

	var puts, err = cmd.puts()
	mbp.Must(err, "failed to build rows")

	var client, done = RowsCfg.HBase.MustClient()
	defer done()

	mbp.Must(client.PutRows(ctx, pb.TableName(cmd.Table), puts), "failed to put rows")
	log.WithFields(log.Fields{
		"table":  cmd.Table,
		"rows":   humanize.Comma(int64(len(puts))),
		"chunks": batch.Count(len(puts), batch.MutationChunkSize),
	}).Info("put rows")
	return nil
}

func (cmd *cmdRowsPut) puts() ([]pb.Put, error) {
	if cmd.Input != "" && (cmd.Row != "" || len(cmd.Cells) != 0) {
		return nil, errors.New("expected one of --input or --row and --cell, not both")
	} else if cmd.Input != "" {
		var docs []rowDoc
		if err := cmd.decode(&docs); err != nil {
			return nil, err
		}
		return putsOfDocs(docs), nil
	} else if cmd.Row == "" || len(cmd.Cells) == 0 {
		return nil, errors.New("expected --input, or --row with at least one --cell")
	}

	var put = pb.NewPut(cmd.Row)
	for _, s := range cmd.Cells {
		var cell, err = parseCell(s)
		if err != nil {
			return nil, err
		}
		put = put.Add(cell.Family, cell.Qualifier, cell.Value)
	}
	return []pb.Put{put}, nil
}

func (cmd *cmdRowsGet) Execute([]string) error {
	defer startup()()
	var client, done = RowsCfg.HBase.MustClient()
	defer done()

	var gets = make([]pb.Get, len(cmd.Rows))
	for i, r := range cmd.Rows {
		gets[i] = pb.NewGet(r)
		gets[i].Families = cmd.Families
	}
	var results, err = client.GetRows(ctx, pb.TableName(cmd.Table), gets)
	mbp.Must(err, "failed to get rows")

	outputResults(cmd.Format, results)
	return nil
}

func (cmd *cmdRowsDelete) Execute([]string) error {
	defer startup()()
	var client, done = RowsCfg.HBase.MustClient()
	defer done()

	var dels = make([]pb.Delete, len(cmd.Rows))
	for i, r := range cmd.Rows {
		dels[i] = pb.NewDelete(r)
		dels[i].Families = cmd.Families
	}
	mbp.Must(client.DeleteRows(ctx, pb.TableName(cmd.Table), dels), "failed to delete rows")
	log.WithFields(log.Fields{"table": cmd.Table, "rows": len(dels)}).Info("deleted rows")
	return nil
}

func (cmd *cmdRowsScan) Execute([]string) error {
	defer startup()()
	var client, done = RowsCfg.HBase.MustClient()
	defer done()

	var scan = pb.NewScanRange(cmd.Start, cmd.Stop)
	scan.Families = cmd.Families
	scan.Limit = cmd.Limit

	var results, err = client.ScanRows(ctx, pb.TableName(cmd.Table), scan)
	mbp.Must(err, "failed to scan rows")

	outputResults(cmd.Format, results)
	return nil
}

func outputResults(format string, results []pb.Result) {
	var docs = docsOfResults(results)

	switch format {
	case "table":
		var table = tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Row", "Family", "Qualifier", "Value"})

		var size int
		for _, d := range docs {
			for _, c := range d.Cells {
				table.Append([]string{d.Row, c.Family, c.Qualifier, c.Value})
				size += len(c.Value)
			}
		}
		table.Render()
		fmt.Printf("%s rows (%s of values)\n", humanize.Comma(int64(len(docs))), humanize.IBytes(uint64(size)))
	case "yaml":
		var b, err = yaml.Marshal(docs)
		mbp.Must(err, "failed to encode rows")
		_, _ = os.Stdout.Write(b)
	}
}

// parseCell parses a cell of the form "family:qualifier=value". The
// qualifier may be empty.
func parseCell(s string) (pb.Cell, error) {
	var column, value, ok = strings.Cut(s, "=")
	if !ok {
		return pb.Cell{}, errors.Errorf("invalid cell %q (expected family:qualifier=value)", s)
	}
	var family, qualifier, _ = strings.Cut(column, ":")

	var cell = pb.Cell{Family: family, Qualifier: qualifier, Value: []byte(value)}
	if err := cell.Validate(); err != nil {
		return pb.Cell{}, errors.WithMessagef(err, "invalid cell %q", s)
	}
	return cell, nil
}

func putsOfDocs(docs []rowDoc) []pb.Put {
	var out = make([]pb.Put, 0, len(docs))
	for _, d := range docs {
		var put = pb.NewPut(d.Row)
		for _, c := range d.Cells {
			put = put.Add(c.Family, c.Qualifier, []byte(c.Value))
		}
		out = append(out, put)
	}
	return out
}

// docsOfResults maps Results to rowDocs, skipping empty Results.
func docsOfResults(results []pb.Result) []rowDoc {
	var out []rowDoc
	for _, r := range results {
		if r.Empty() {
			continue
		}
		var doc = rowDoc{Row: string(r.Row)}
		for _, c := range r.Cells {
			doc.Cells = append(doc.Cells, cellDoc{Family: c.Family, Qualifier: c.Qualifier, Value: string(c.Value)})
		}
		out = append(out, doc)
	}
	return out
}
