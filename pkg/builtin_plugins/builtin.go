package builtin_plugins

import (
	"github.com/jirwin/modbot/pkg/builtin_plugins/dispatch"
	"github.com/jirwin/modbot/pkg/builtin_plugins/echo"
	"github.com/jirwin/modbot/pkg/builtin_plugins/help"
	"github.com/jirwin/modbot/pkg/builtin_plugins/karma"
	"github.com/jirwin/modbot/pkg/framework"
)

var (
	Echo            = echo.Register
	Help            = help.Register
	Karma           = karma.Register
	MessageDispatch = dispatch.Message
	SlashDispatch   = dispatch.Slash
)

// Defaults returns the compiled-in commands and events: help, echo and the
// message and slash command dispatchers. When karmaService is set the karma
// plugin is added, backed by that kv service.
func Defaults(prefix, karmaService string) ([]framework.CommandModule, []framework.EventModule) {
	cmds := []framework.CommandModule{Help(), Echo()}
	events := []framework.EventModule{MessageDispatch(prefix), SlashDispatch()}

	if karmaService != "" {
		cmd, hook := Karma(karmaService)
		cmds = append(cmds, cmd)
		events = append(events, hook)
	}

	return cmds, events
}
