package framework

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/jirwin/modbot/pkg/event_bus"
)

// Client is the chat client the framework is layered on. The framework only
// subscribes to its events and hands it the services namespace.
type Client interface {
	On(event string, h event_bus.Handler)
	SetServices(namespace string, services *Services)
}

// Replier is implemented by clients that can post a message back to where msg came from.
type Replier interface {
	Reply(ctx context.Context, msg *slack.Msg, text string) error
}

// Command is the capability a command plugin implements.
type Command interface {
	Run(ctx context.Context, args []string, msg *slack.Msg, fw *Framework) error
}

// CommandFunc adapts a plain function to the Command interface.
type CommandFunc func(ctx context.Context, args []string, msg *slack.Msg, fw *Framework) error

func (f CommandFunc) Run(ctx context.Context, args []string, msg *slack.Msg, fw *Framework) error {
	return f(ctx, args, msg, fw)
}

// Event is the capability an event plugin implements. args are whatever the
// client emitted the event with.
type Event interface {
	Run(ctx context.Context, args []any, fw *Framework) error
}

// EventFunc adapts a plain function to the Event interface.
type EventFunc func(ctx context.Context, args []any, fw *Framework) error

func (f EventFunc) Run(ctx context.Context, args []any, fw *Framework) error {
	return f(ctx, args, fw)
}

// CommandModule describes a command before it is registered.
type CommandModule struct {
	Name        string
	Run         Command
	Alias       []string
	Description string
	Usage       string
	Example     string
	Group       string
	// Path is the plugin file the command came from. Empty for compiled-in commands.
	Path string
}

// EventModule describes an event subscription before it is bound.
type EventModule struct {
	Name string
	Run  Event
	Path string
}

// CommandMeta is the help record kept for every registered command.
type CommandMeta struct {
	Name        string
	Description string
	Usage       string
	Example     string
	Aliases     []string
	Group       string
}

// Group is a named list of commands, in registration order.
type Group struct {
	Name     string
	Commands []*CommandMeta
}

// Warning is a non-fatal problem found while registering a plugin.
type Warning struct {
	Name    string
	Path    string
	Missing []string
}

func (w Warning) String() string {
	src := w.Path
	if src == "" {
		src = w.Name
	}
	return fmt.Sprintf("command '%s' is missing some meta properties (%s)", src, strings.Join(w.Missing, ", "))
}
