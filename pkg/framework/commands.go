package framework

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/module_loader"
)

const (
	DefaultGroup  = "Unsorted"
	NoDescription = "No description provided"
	NoUsage       = "No usage provided"
	NoExample     = "No example provided"
	entrypoint    = "run"
)

var argSplitter = regexp.MustCompile(`\s+`)

type aliasEntry struct {
	name    string
	aliases []string
}

func (fw *Framework) loadCommands(builtins []CommandModule) ([]CommandModule, error) {
	modules, err := module_loader.Load(fw.paths.Commands)
	if err != nil {
		return nil, err
	}

	out := make([]CommandModule, 0, len(builtins)+len(modules))
	out = append(out, builtins...)

	for _, m := range modules {
		if strings.TrimSpace(m.Manifest.Run) == "" {
			return nil, fmt.Errorf("%w: no '%s' function found in command '%s'", ErrInvalidCommand, entrypoint, m.Path)
		}

		cmd, err := newScriptCommand(m, fw.paths.Commands)
		if err != nil {
			return nil, err
		}

		out = append(out, CommandModule{
			Name:        m.Name,
			Run:         cmd,
			Alias:       m.Manifest.Alias,
			Description: m.Manifest.Description,
			Usage:       m.Manifest.Usage,
			Example:     m.Manifest.Example,
			Group:       m.Manifest.Group,
			Path:        m.Path,
		})
	}

	return out, nil
}

func (fw *Framework) registerCommand(cm CommandModule) error {
	if cm.Name == "" {
		return fmt.Errorf("%w: command without a name", ErrConfiguration)
	}
	if cm.Run == nil {
		return fmt.Errorf("%w: no '%s' function found in command '%s'", ErrInvalidCommand, entrypoint, cm.Name)
	}
	if _, ok := fw.commands[cm.Name]; ok {
		return fmt.Errorf("%w: command already exists: %s", ErrConfiguration, cm.Name)
	}

	var missing []string
	if cm.Description == "" {
		missing = append(missing, "description")
	}
	if cm.Example == "" {
		missing = append(missing, "example")
	}
	if cm.Usage == "" {
		missing = append(missing, "usage")
	}
	if cm.Group == "" {
		missing = append(missing, "group")
	}
	if len(missing) > 0 {
		w := Warning{Name: cm.Name, Path: cm.Path, Missing: missing}
		fw.warnings = append(fw.warnings, w)
		fw.l.Warn(w.String())
	}

	fw.l.Info("registering command", zap.String("command_name", cm.Name), zap.Strings("aliases", cm.Alias))

	fw.commands[cm.Name] = cm.Run
	if len(cm.Alias) > 0 {
		fw.aliases = append(fw.aliases, aliasEntry{name: cm.Name, aliases: cm.Alias})
	}

	groupName := cm.Group
	if groupName == "" {
		groupName = DefaultGroup
	}
	group, ok := fw.groupIdx[groupName]
	if !ok {
		group = &Group{Name: groupName}
		fw.groupIdx[groupName] = group
		fw.groups = append(fw.groups, group)
	}

	aliases := []string{}
	aliases = append(aliases, cm.Alias...)
	group.Commands = append(group.Commands, &CommandMeta{
		Name:        cm.Name,
		Description: orDefault(cm.Description, NoDescription),
		Usage:       orDefault(cm.Usage, NoUsage),
		Example:     orDefault(cm.Example, NoExample),
		Aliases:     aliases,
		Group:       groupName,
	})

	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// RunCommand parses raw as a command invocation and runs the matching command.
// It reports whether a command was run. Errors returned by the command are
// passed through untouched.
//
// The first token after prefix is lower-cased and matched against command
// names, then against aliases in registration order. The first command whose
// alias list contains the token wins.
func (fw *Framework) RunCommand(ctx context.Context, prefix, raw string, msg *slack.Msg) (bool, error) {
	if !strings.HasPrefix(raw, prefix) {
		return false, nil
	}

	name, args := parseCommand(prefix, raw)

	cmd, ok := fw.commands[name]
	if !ok {
		cmd, ok = fw.resolveAlias(name)
	}
	if !ok {
		return false, nil
	}

	fw.l.Debug("running command", zap.String("command_name", name), zap.Strings("args", args))

	return true, cmd.Run(ctx, args, msg, fw)
}

func parseCommand(prefix, raw string) (string, []string) {
	// the prefix may itself contain whitespace
	trimmed := strings.TrimSpace(raw[len(prefix):])
	tokens := argSplitter.Split(trimmed, -1)

	return strings.ToLower(tokens[0]), tokens[1:]
}

func (fw *Framework) resolveAlias(name string) (Command, bool) {
	for _, entry := range fw.aliases {
		for _, a := range entry.aliases {
			if a == name {
				return fw.commands[entry.name], true
			}
		}
	}

	return nil, false
}

// HasCommand reports whether name is a registered command name.
func (fw *Framework) HasCommand(name string) bool {
	_, ok := fw.commands[name]
	return ok
}

// FindCommand returns the help record for the command called name, or the
// first one that has name as an alias.
func (fw *Framework) FindCommand(name string) (*CommandMeta, bool) {
	for _, g := range fw.groups {
		for _, c := range g.Commands {
			if c.Name == name {
				return c, true
			}
			for _, a := range c.Aliases {
				if a == name {
					return c, true
				}
			}
		}
	}

	return nil, false
}

// Groups returns every help group in the order they were first used.
func (fw *Framework) Groups() []Group {
	out := make([]Group, 0, len(fw.groups))
	for _, g := range fw.groups {
		out = append(out, Group{Name: g.Name, Commands: append([]*CommandMeta{}, g.Commands...)})
	}

	return out
}
