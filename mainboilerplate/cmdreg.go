package mainboilerplate

import (
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// CommandRegistry collects go-flags command specifications from package
// init() functions, keyed on the dotted path of their parent command, so
// that a program can assemble its command tree once all packages are loaded.
// The root command has the empty path "".
type CommandRegistry map[string][]commandSpec

type commandSpec struct {
	name, short, long string
	data              interface{}
}

// NewCommandRegistry returns an empty CommandRegistry.
func NewCommandRegistry() CommandRegistry { return make(CommandRegistry) }

// AddCommand registers a command |name| under the parent command |parent|.
// Nested parents are separated with dots, as in "tables" or "tables.meta".
func (cr CommandRegistry) AddCommand(parent, name, short, long string, data interface{}) {
	cr[parent] = append(cr[parent], commandSpec{name: name, short: short, long: long, data: data})
}

// AddCommands adds commands registered under |path| to |cmd|, and then
// recurses into every sub-command of |cmd|. It's an error if a registered
// parent path doesn't resolve to a command.
func (cr CommandRegistry) AddCommands(path string, cmd *flags.Command) error {
	var visited = make(map[string]bool)
	if err := cr.addCommands(path, cmd, visited); err != nil {
		return err
	}
	for parent := range cr {
		if !visited[parent] && (parent == path || strings.HasPrefix(parent, prefixOf(path))) {
			return errors.Errorf("parent command %q not found", parent)
		}
	}
	return nil
}

func (cr CommandRegistry) addCommands(path string, cmd *flags.Command, visited map[string]bool) error {
	visited[path] = true

	for _, spec := range cr[path] {
		if _, err := cmd.AddCommand(spec.name, spec.short, spec.long, spec.data); err != nil {
			return errors.WithMessagef(err, "adding command %q", prefixOf(path)+spec.name)
		}
	}
	for _, sub := range cmd.Commands() {
		if err := cr.addCommands(prefixOf(path)+sub.Name, sub, visited); err != nil {
			return err
		}
	}
	return nil
}

func prefixOf(path string) string {
	if path == "" {
		return ""
	}
	return path + "."
}
