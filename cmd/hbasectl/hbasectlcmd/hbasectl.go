// Package hbasectlcmd implements the commands of hbasectl.
package hbasectlcmd

import (
	"context"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	mbp "go.ebuer.dev/hbase/mainboilerplate"
	"gopkg.in/yaml.v2"
)

const iniFilename = "hbasectl.ini"

var ctx = context.Background()

var (
	baseCfg = new(struct {
		Log         mbp.LogConfig         `group:"Logging" namespace:"log" env-namespace:"LOG"`
		Diagnostics mbp.DiagnosticsConfig `group:"Diagnostics" namespace:"diagnostics" env-namespace:"DIAGNOSTICS"`
	})
	TablesCfg = new(struct {
		HBase mbp.HBaseConfig `group:"HBase" namespace:"hbase" env-namespace:"HBASE"`
	})
	FamiliesCfg = new(struct {
		HBase mbp.HBaseConfig `group:"HBase" namespace:"hbase" env-namespace:"HBASE"`
	})
	RowsCfg = new(struct {
		HBase mbp.HBaseConfig `group:"HBase" namespace:"hbase" env-namespace:"HBASE"`
	})
	SQLCfg = new(struct {
		Phoenix mbp.PhoenixConfig `group:"Phoenix" namespace:"phoenix" env-namespace:"PHOENIX"`
	})

	// CommandRegistry of sub-commands, keyed on their parent command.
	CommandRegistry = mbp.NewCommandRegistry()
)

// OutputConfig is common configuration of commands which print results.
type OutputConfig struct {
	Format string `long:"format" short:"o" choice:"table" choice:"yaml" default:"table" description:"Output format"`
}

// InputConfig is common configuration of commands which read a document.
type InputConfig struct {
	Input string `long:"input" description:"Input YAML document path. Use '-' for stdin"`
}

func (cfg InputConfig) read() ([]byte, error) {
	if cfg.Input == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(cfg.Input)
}

func (cfg InputConfig) decode(into interface{}) error {
	var buffer, err = cfg.read()
	mbp.Must(err, "failed to read YAML input")

	if err = yaml.UnmarshalStrict(buffer, into); err != nil {
		// `yaml` produces nicely formatted error messages that are best printed as-is.
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		return errors.New("YAML decode failed")
	}
	return nil
}

// startup initializes logging and diagnostics. The returned closure should
// be deferred.
func startup() func() {
	mbp.InitLog(baseCfg.Log)
	return mbp.InitDiagnosticsAndRecover(baseCfg.Diagnostics)
}

func init() {
	// Commands which exist solely to contain further nested sub-commands.
	CommandRegistry.AddCommand("", "tables", "Administer tables", "", TablesCfg)
	CommandRegistry.AddCommand("", "families", "Administer column families of tables", "", FamiliesCfg)
	CommandRegistry.AddCommand("", "rows", "Read and write rows of tables", "", RowsCfg)
	CommandRegistry.AddCommand("", "sql", "Run Phoenix SQL statements", "", SQLCfg)
}

// Execute parses configuration and runs the selected command.
func Execute() { mbp.MustParseConfig(newParser(), iniFilename) }

func newParser() *flags.Parser {
	var parser = flags.NewParser(baseCfg, flags.Default)

	mbp.AddPrintConfigCmd(parser, iniFilename)
	parser.LongDescription = `hbasectl is a tool for administering and querying HBase tables, and for
running Phoenix SQL statements.

Table, family, and row commands run against the embedded store of
--hbase.local-dir. If no directory is given, the store is held in memory and
is discarded when the command exits.

See --help pages of each sub-command for documentation and usage examples.
Optionally configure hbasectl with a '` + iniFilename + `' file in the current working directory,
or with '~/.config/hbase/` + iniFilename + `'. Use the 'print-config' sub-command to inspect
the tool's current configuration.
`

	mbp.Must(CommandRegistry.AddCommands("", parser.Command), "could not add subcommand")
	return parser
}
