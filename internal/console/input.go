// Package console holds the small contracts commands share: a parsed
// command line (Input) and an error carrying a process exit code.
package console

import (
	"maps"

	"github.com/spf13/pflag"
)

// Input exposes the named arguments and options of a parsed command line.
type Input interface {
	// Argument returns the positional argument registered under name, or "".
	Argument(name string) string
	// Option returns the string value of a flag, or "" when unset or unknown.
	Option(name string) string
	// Flag reports whether a boolean flag is set.
	Flag(name string) bool
	// Clone returns an independent copy.
	Clone() Input
}

// CommandInput adapts a cobra/pflag flag set and positional args to Input.
// Positional args are bound to names in the order given to NewCommandInput.
type CommandInput struct {
	args    map[string]string
	options map[string]string
	flags   map[string]bool
}

// NewCommandInput snapshots the flag set. Extra positional args beyond names
// are ignored; missing ones read as "".
func NewCommandInput(fs *pflag.FlagSet, names []string, args []string) *CommandInput {
	in := &CommandInput{
		args:    make(map[string]string, len(names)),
		options: make(map[string]string),
		flags:   make(map[string]bool),
	}
	for i, name := range names {
		if i < len(args) {
			in.args[name] = args[i]
		}
	}
	if fs != nil {
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Value.Type() == "bool" {
				in.flags[f.Name] = f.Value.String() == "true"
				return
			}
			in.options[f.Name] = f.Value.String()
		})
	}
	return in
}

func (c *CommandInput) Argument(name string) string { return c.args[name] }

func (c *CommandInput) Option(name string) string { return c.options[name] }

func (c *CommandInput) Flag(name string) bool { return c.flags[name] }

func (c *CommandInput) Clone() Input {
	return &CommandInput{
		args:    maps.Clone(c.args),
		options: maps.Clone(c.options),
		flags:   maps.Clone(c.flags),
	}
}

// MapInput is an Input built from literal maps.
type MapInput struct {
	Args    map[string]string
	Options map[string]string
	Flags   map[string]bool
}

func (m MapInput) Argument(name string) string { return m.Args[name] }

func (m MapInput) Option(name string) string { return m.Options[name] }

func (m MapInput) Flag(name string) bool { return m.Flags[name] }

func (m MapInput) Clone() Input {
	return MapInput{
		Args:    maps.Clone(m.Args),
		Options: maps.Clone(m.Options),
		Flags:   maps.Clone(m.Flags),
	}
}
