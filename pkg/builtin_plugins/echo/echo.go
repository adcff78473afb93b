package echo

import (
	"context"
	"strings"

	"github.com/slack-go/slack"

	"github.com/jirwin/modbot/pkg/framework"
)

func echoCommand(ctx context.Context, args []string, msg *slack.Msg, fw *framework.Framework) error {
	if len(args) == 0 {
		return nil
	}

	return fw.Reply(ctx, msg, strings.Join(args, " "))
}

func Register() framework.CommandModule {
	return framework.CommandModule{
		Name:        "echo",
		Run:         framework.CommandFunc(echoCommand),
		Description: "Repeats what you say.",
		Usage:       "echo <text>",
		Example:     "echo hello there",
		Group:       "General",
	}
}
