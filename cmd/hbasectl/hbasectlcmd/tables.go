package hbasectlcmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	mbp "go.ebuer.dev/hbase/mainboilerplate"
	pb "go.ebuer.dev/hbase/protocol"
	"gopkg.in/yaml.v2"
)

type cmdTablesCreate struct {
	Table    string   `long:"table" short:"t" required:"true" description:"Name of the table, as [namespace:]qualifier"`
	Families []string `long:"family" short:"f" required:"true" description:"Column family of the table. May be repeated"`
}

type cmdTablesDrop struct {
	Tables []string `long:"table" short:"t" required:"true" description:"Name of a table to drop. May be repeated"`
}

type cmdTablesExists struct {
	Table string `long:"table" short:"t" required:"true" description:"Name of the table"`
}

type cmdTablesList struct {
	OutputConfig
	Pattern string `long:"pattern" short:"p" description:"Regular expression which listed table names must match. If empty, all tables are listed"`
}

func init() {
	CommandRegistry.AddCommand("tables", "create", "Create a table", `
Create a table having one or more column families.

Creating a table which already exists is an error, and leaves the existing
table unchanged.

Create table "user" having families "base_info" and "extra_info":
>    hbasectl tables create --table user --family base_info --family extra_info
`, &cmdTablesCreate{})

	CommandRegistry.AddCommand("tables", "drop", "Disable and delete tables", `
Disable and then delete each named table, in the order given.

Dropping stops at the first table which fails to drop. Tables dropped before
the failure remain dropped.
`, &cmdTablesDrop{})

	CommandRegistry.AddCommand("tables", "exists", "Test whether a table exists", `
Print "true" if the table exists, or "false" otherwise.
`, &cmdTablesExists{})

	CommandRegistry.AddCommand("tables", "list", "List tables", `
List tables having names which match --pattern.

Results can be output in a variety of --format options:
yaml:  Prints a YAML sequence of table names.
table: Prints as a table.
`, &cmdTablesList{})
}

func (cmd *cmdTablesCreate) Execute([]string) error {
	defer startup()()
	var client, done = TablesCfg.HBase.MustClient()
	defer done()

	mbp.Must(client.CreateTable(ctx, pb.TableName(cmd.Table), cmd.Families...), "failed to create table")
	log.WithFields(log.Fields{"table": cmd.Table, "families": cmd.Families}).Info("created table")
	return nil
}

func (cmd *cmdTablesDrop) Execute([]string) error {
	defer startup()()
	var client, done = TablesCfg.HBase.MustClient()
	defer done()

	var names = make([]pb.TableName, len(cmd.Tables))
	for i, t := range cmd.Tables {
		names[i] = pb.TableName(t)
	}
	mbp.Must(client.DropTable(ctx, names...), "failed to drop tables")
	log.WithField("tables", cmd.Tables).Info("dropped tables")
	return nil
}

func (cmd *cmdTablesExists) Execute([]string) error {
	defer startup()()
	var client, done = TablesCfg.HBase.MustClient()
	defer done()

	var ok, err = client.ExistsTable(ctx, pb.TableName(cmd.Table))
	mbp.Must(err, "failed to test table existence")
	fmt.Println(ok)
	return nil
}

func (cmd *cmdTablesList) Execute([]string) error {
	defer startup()()
	var client, done = TablesCfg.HBase.MustClient()
	defer done()

	var names, err = client.ListTables(ctx, cmd.Pattern)
	mbp.Must(err, "failed to list tables")

	switch cmd.Format {
	case "table":
		var table = tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Name", "Namespace", "Qualifier"})
		for _, n := range names {
			table.Append([]string{n.String(), n.Namespace(), n.Qualifier()})
		}
		table.Render()
		fmt.Printf("%s tables\n", humanize.Comma(int64(len(names))))
	case "yaml":
		var b, err = yaml.Marshal(names)
		mbp.Must(err, "failed to encode tables")
		_, _ = os.Stdout.Write(b)
	}
	return nil
}
