package hbasectlcmd

import (
	log "github.com/sirupsen/logrus"
	mbp "go.ebuer.dev/hbase/mainboilerplate"
	pb "go.ebuer.dev/hbase/protocol"
)

type familiesConfig struct {
	Table    string   `long:"table" short:"t" required:"true" description:"Name of the table"`
	Families []string `long:"family" short:"f" required:"true" description:"Column family. May be repeated"`
}

type cmdFamiliesAdd struct{ familiesConfig }

type cmdFamiliesDelete struct{ familiesConfig }

func init() {
	CommandRegistry.AddCommand("families", "add", "Add column families to a table", `
Add each --family to the table, in the order given. Adding stops at the first
family which fails to be added.

>    hbasectl families add --table user --family audit
`, &cmdFamiliesAdd{})

	CommandRegistry.AddCommand("families", "delete", "Delete column families of a table", `
Delete each --family of the table, along with all of its cells.
A table's only remaining family cannot be deleted.
`, &cmdFamiliesDelete{})
}

func (cmd *cmdFamiliesAdd) Execute([]string) error {
	defer startup()()
	var client, done = FamiliesCfg.HBase.MustClient()
	defer done()

	mbp.Must(client.AddColumnFamily(ctx, pb.TableName(cmd.Table), cmd.Families...), "failed to add families")
	log.WithFields(log.Fields{"table": cmd.Table, "families": cmd.Families}).Info("added families")
	return nil
}

func (cmd *cmdFamiliesDelete) Execute([]string) error {
	defer startup()()
	var client, done = FamiliesCfg.HBase.MustClient()
	defer done()

	mbp.Must(client.DeleteColumnFamily(ctx, pb.TableName(cmd.Table), cmd.Families...), "failed to delete families")
	log.WithFields(log.Fields{"table": cmd.Table, "families": cmd.Families}).Info("deleted families")
	return nil
}
