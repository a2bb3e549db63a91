package migration

import (
	"fmt"
	"strconv"
)

// Verb names a migrate CLI command
type Verb string

const (
	VerbUp      Verb = "up"
	VerbDown    Verb = "down"
	VerbSteps   Verb = "steps"
	VerbGoto    Verb = "goto"
	VerbVersion Verb = "version"
	VerbForce   Verb = "force"
	VerbCreate  Verb = "create"
	VerbList    Verb = "list"
)

// Command is a parsed migrate CLI invocation
type Command struct {
	Verb    Verb
	N       int
	Version uint
	Name    string
}

// NeedsDatabase reports whether the command touches the database
func (c Command) NeedsDatabase() bool {
	return c.Verb != VerbCreate && c.Verb != VerbList
}

// ParseCommand parses positional CLI arguments such as "steps -1"
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, fmt.Errorf("command required")
	}

	cmd := Command{Verb: Verb(args[0])}
	arg := func(what string) (string, error) {
		if len(args) < 2 {
			return "", fmt.Errorf("%s requires %s", cmd.Verb, what)
		}
		return args[1], nil
	}

	switch cmd.Verb {
	case VerbUp, VerbDown, VerbVersion, VerbList:
		return cmd, nil
	case VerbSteps, VerbForce:
		s, err := arg("a number")
		if err != nil {
			return Command{}, err
		}
		if cmd.N, err = strconv.Atoi(s); err != nil {
			return Command{}, fmt.Errorf("invalid number %q", s)
		}
		if cmd.Verb == VerbSteps && cmd.N == 0 {
			return Command{}, fmt.Errorf("steps must not be zero")
		}
		return cmd, nil
	case VerbGoto:
		s, err := arg("a version")
		if err != nil {
			return Command{}, err
		}
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return Command{}, fmt.Errorf("invalid version %q", s)
		}
		cmd.Version = uint(v)
		return cmd, nil
	case VerbCreate:
		s, err := arg("a name")
		if err != nil {
			return Command{}, err
		}
		cmd.Name = s
		return cmd, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", args[0])
}

// Execute runs a database command against m
func Execute(m *Migrator, cmd Command) (string, error) {
	switch cmd.Verb {
	case VerbUp:
		return "", m.Up()
	case VerbDown:
		return "", m.Down()
	case VerbSteps:
		return "", m.Steps(cmd.N)
	case VerbGoto:
		return "", m.GoTo(cmd.Version)
	case VerbForce:
		return "", m.Force(cmd.N)
	case VerbVersion:
		v, dirty, err := m.Version()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("version %d (dirty=%t)", v, dirty), nil
	}
	return "", fmt.Errorf("%s does not run against the database", cmd.Verb)
}
