package dispatch

import (
	"context"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/framework"
	"github.com/jirwin/modbot/pkg/slack_client"
)

// SlashPrefix is the prefix slash command invocations are run with.
const SlashPrefix = "/"

// Message runs prefixed chat messages as commands. Messages posted by bots are ignored.
func Message(prefix string) framework.EventModule {
	return framework.EventModule{
		Name: slack_client.EventMessage,
		Run: framework.EventFunc(func(ctx context.Context, args []any, fw *framework.Framework) error {
			if len(args) == 0 {
				return nil
			}
			msg, ok := args[0].(*slack.Msg)
			if !ok || isBot(msg) {
				return nil
			}

			ran, err := fw.RunCommand(ctx, prefix, msg.Text, msg)
			if ran {
				fw.Logger().Debug("dispatched message", zap.String("channel", msg.Channel), zap.String("user", msg.User))
			}
			return err
		}),
	}
}

// Slash runs slash commands, e.g. "/ping a b" runs the ping command with args a and b.
func Slash() framework.EventModule {
	return framework.EventModule{
		Name: slack_client.EventSlashCommand,
		Run: framework.EventFunc(func(ctx context.Context, args []any, fw *framework.Framework) error {
			if len(args) == 0 {
				return nil
			}
			cmd, ok := args[0].(*slack_client.SlashCommand)
			if !ok {
				return nil
			}

			msg := cmd.Msg()
			if len(args) > 1 {
				if m, ok := args[1].(*slack.Msg); ok {
					msg = m
				}
			}

			ran, err := fw.RunCommand(ctx, SlashPrefix, cmd.Command+" "+cmd.Text, msg)
			if !ran {
				fw.Logger().Info("unknown slash command", zap.String("command", cmd.Command))
			}
			return err
		}),
	}
}

func isBot(msg *slack.Msg) bool {
	return msg.BotID != "" || msg.SubType == "bot_message"
}
