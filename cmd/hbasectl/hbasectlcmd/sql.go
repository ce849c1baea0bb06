package hbasectlcmd

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	mbp "go.ebuer.dev/hbase/mainboilerplate"
	pb "go.ebuer.dev/hbase/protocol"
	"gopkg.in/yaml.v2"
)

type cmdSQLQuery struct {
	Query  string `long:"query" short:"q" required:"true" description:"SQL query to run"`
	Format string `long:"format" short:"o" choice:"json" choice:"table" choice:"yaml" default:"json" description:"Output format"`
}

type cmdSQLExec struct {
	Statements []string `long:"statement" short:"s" required:"true" description:"SQL statement to run. May be repeated"`
}

type cmdSQLBatch struct {
	InputConfig
}

func init() {
	CommandRegistry.AddCommand("sql", "query", "Run a SQL query", `
Run a SQL query and print its rows.

Results can be output in a variety of --format options:
json:  Prints {"data":[...]}, having an object for each row. Columns which
       are NULL are omitted from their row's object.
yaml:  Prints a YAML sequence of rows.
table: Prints as a table.

>    hbasectl sql query --query "SELECT id, name FROM users ORDER BY id"
`, &cmdSQLQuery{})

	CommandRegistry.AddCommand("sql", "exec", "Run SQL statements", `
Run each --statement in order, then commit. Execution stops at the first
statement which fails, and nothing is committed.
`, &cmdSQLExec{})

	CommandRegistry.AddCommand("sql", "batch", "Run a batch of SQL statements", `
Read SQL statements from --input, one per line, and run them as batches of
up to 1024 statements. All batches are committed together after the last.
Blank lines and lines beginning with "--" are skipped.
`, &cmdSQLBatch{})
}

func (cmd *cmdSQLQuery) Execute([]string) error {
	defer startup()()
	var client = SQLCfg.Phoenix.MustClient(nil)

	var rs, err = client.QuerySQL(ctx, cmd.Query)
	mbp.Must(err, "failed to query")

	switch cmd.Format {
	case "json":
		fmt.Println(rs.String())
	case "yaml":
		var b, err = yaml.Marshal(rs.Data)
		mbp.Must(err, "failed to encode records")
		_, _ = os.Stdout.Write(b)
	case "table":
		outputRecordTable(rs)
	}
	return nil
}

func (cmd *cmdSQLExec) Execute([]string) error {
	defer startup()()
	var client = SQLCfg.Phoenix.MustClient(nil)
	var started = time.Now()

	mbp.Must(client.ExecSQL(ctx, cmd.Statements...), "failed to execute statements")
	log.WithFields(log.Fields{
		"statements": len(cmd.Statements),
		"started":    humanize.Time(started),
	}).Info("executed statements")
	return nil
}

func (cmd *cmdSQLBatch) Execute([]string) error {
	defer startup()()

	var input, err = cmd.read()
	mbp.Must(err, "failed to read input")
	stmts, err := parseStatements(input)
	mbp.Must(err, "failed to parse statements")

	var client = SQLCfg.Phoenix.MustClient(nil)
	var started = time.Now()

	mbp.Must(client.ExecBatchSQL(ctx, stmts), "failed to execute batch")
	log.WithFields(log.Fields{
		"statements": humanize.Comma(int64(len(stmts))),
		"started":    humanize.Time(started),
	}).Info("executed batch")
	return nil
}

func outputRecordTable(rs pb.RecordSet) {
	var columns = rs.Columns()
	var table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader(columns)

	for _, r := range rs.Data {
		var row = make([]string, len(columns))
		for i, c := range columns {
			if v, ok := r.Get(c); ok {
				row[i] = v
			} else {
				row[i] = "NULL"
			}
		}
		table.Append(row)
	}
	table.Render()
	fmt.Printf("%s rows\n", humanize.Comma(int64(len(rs.Data))))
}

// parseStatements splits |input| into statements, one per line. Blank
// lines and "--" comment lines are skipped, as is a trailing semicolon.
func parseStatements(input []byte) ([]string, error) {
	var out []string
	var scanner = bufio.NewScanner(bytes.NewReader(input))
	scanner.Buffer(nil, 1<<20)

	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		line = strings.TrimSpace(strings.TrimSuffix(line, ";"))

		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}
