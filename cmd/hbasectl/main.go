package main

import (
	_ "github.com/apache/calcite-avatica-go/v5" // Registers the "avatica" driver.
	_ "github.com/mattn/go-sqlite3"             // Registers the "sqlite3" driver.
	"go.ebuer.dev/hbase/cmd/hbasectl/hbasectlcmd"
)

func main() { hbasectlcmd.Execute() }
