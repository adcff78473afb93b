package help

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/jirwin/modbot/pkg/framework"
)

func helpCommand(ctx context.Context, args []string, msg *slack.Msg, fw *framework.Framework) error {
	if len(args) > 0 {
		return fw.Reply(ctx, msg, describe(fw, strings.ToLower(args[0])))
	}

	return fw.Reply(ctx, msg, list(fw))
}

func list(fw *framework.Framework) string {
	b := &strings.Builder{}
	for i, g := range fw.Groups() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "*%s*\n", g.Name)
		for _, c := range g.Commands {
			fmt.Fprintf(b, "  %s: %s\n", c.Name, c.Description)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func describe(fw *framework.Framework, name string) string {
	c, ok := fw.FindCommand(name)
	if !ok {
		return fmt.Sprintf("No command named %s.", name)
	}

	lines := []string{
		fmt.Sprintf("*%s* (%s)", c.Name, c.Group),
		c.Description,
		fmt.Sprintf("Usage: %s", c.Usage),
		fmt.Sprintf("Example: %s", c.Example),
	}
	if len(c.Aliases) > 0 {
		lines = append(lines, fmt.Sprintf("Aliases: %s", strings.Join(c.Aliases, ", ")))
	}

	return strings.Join(lines, "\n")
}

func Register() framework.CommandModule {
	return framework.CommandModule{
		Name:        "help",
		Run:         framework.CommandFunc(helpCommand),
		Alias:       []string{"h"},
		Description: "Lists the available commands, or describes one.",
		Usage:       "help [command]",
		Example:     "help ping",
		Group:       "General",
	}
}
