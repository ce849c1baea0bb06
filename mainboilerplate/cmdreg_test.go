package mainboilerplate

import (
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"
)

type testCmd struct {
	Flag string `long:"flag"`
}

func (testCmd) Execute([]string) error { return nil }

func TestCommandRegistryBuildsTree(t *testing.T) {
	var cr = NewCommandRegistry()

	// Registration order across parents doesn't matter.
	cr.AddCommand("tables", "create", "Create", "", &testCmd{})
	cr.AddCommand("tables.meta", "show", "Show", "", &testCmd{})
	cr.AddCommand("", "tables", "Tables", "", &struct{}{})
	cr.AddCommand("tables", "meta", "Meta", "", &struct{}{})

	var parser = flags.NewNamedParser("test", flags.None)
	require.NoError(t, cr.AddCommands("", parser.Command))

	var tables = parser.Find("tables")
	require.NotNil(t, tables)
	require.NotNil(t, tables.Find("create"))
	require.NotNil(t, tables.Find("meta").Find("show"))
}

func TestCommandRegistryMissingParent(t *testing.T) {
	var cr = NewCommandRegistry()
	cr.AddCommand("rows", "put", "Put", "", &testCmd{})

	var parser = flags.NewNamedParser("test", flags.None)
	require.EqualError(t, cr.AddCommands("", parser.Command), `parent command "rows" not found`)
}

func TestCommandRegistryInvalidTag(t *testing.T) {
	var cr = NewCommandRegistry()
	cr.AddCommand("", "bad", "Bad", "", &struct {
		A string `short:"ab"`
	}{})

	var parser = flags.NewNamedParser("test", flags.None)
	var err = cr.AddCommands("", parser.Command)
	require.Error(t, err)
	require.Contains(t, err.Error(), `adding command "bad"`)
}
