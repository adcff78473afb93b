package builtin_plugins

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jirwin/modbot/pkg/event_bus"
	"github.com/jirwin/modbot/pkg/framework"
	"github.com/jirwin/modbot/pkg/slack_client"
)

type fakeClient struct {
	*event_bus.Bus

	mu      sync.Mutex
	replies []string
}

func (c *fakeClient) SetServices(string, *framework.Services) {}

func (c *fakeClient) Reply(ctx context.Context, msg *slack.Msg, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, text)
	return nil
}

func (c *fakeClient) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.replies)
	return c.replies[len(c.replies)-1]
}

func setup(t *testing.T, karmaService string, files map[string]string) (*fakeClient, *framework.Framework) {
	t.Helper()
	base := t.TempDir()
	for _, dir := range []string{"commands", "events", "services"} {
		require.NoError(t, os.Mkdir(filepath.Join(base, dir), 0o700))
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(base, name), []byte(content), 0o600))
	}

	client := &fakeClient{Bus: event_bus.New()}
	cmds, events := Defaults("!", karmaService)
	fw, err := framework.New(&framework.Options{
		Client:   client,
		Paths:    framework.Paths{Base: base},
		Logger:   zaptest.NewLogger(t),
		Commands: cmds,
		Events:   events,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close() })

	return client, fw
}

func say(t *testing.T, c *fakeClient, text string) {
	t.Helper()
	require.NoError(t, c.Emit(context.Background(), slack_client.EventMessage, &slack.Msg{Channel: "C1", User: "U1", Text: text}))
}

func TestDefaults(t *testing.T) {
	_, fw := setup(t, "", nil)

	require.True(t, fw.HasCommand("help"))
	require.True(t, fw.HasCommand("echo"))
	require.False(t, fw.HasCommand("score"))
	require.Empty(t, fw.Warnings())
}

func TestEcho(t *testing.T) {
	c, _ := setup(t, "", nil)

	say(t, c, "!echo hello   there")
	require.Equal(t, []string{"hello there"}, c.replies)

	say(t, c, "!echo")
	require.Len(t, c.replies, 1)
}

func TestMessageDispatch_IgnoresBots(t *testing.T) {
	c, _ := setup(t, "", nil)

	err := c.Emit(context.Background(), slack_client.EventMessage, &slack.Msg{Text: "!echo hi", BotID: "B1"})
	require.NoError(t, err)
	err = c.Emit(context.Background(), slack_client.EventMessage, &slack.Msg{Text: "!echo hi", SubType: "bot_message"})
	require.NoError(t, err)
	require.Empty(t, c.replies)
}

func TestMessageDispatch_NoPrefix(t *testing.T) {
	c, _ := setup(t, "", nil)

	say(t, c, "echo hi")
	say(t, c, "!nope hi")
	require.Empty(t, c.replies)
}

func TestSlashDispatch(t *testing.T) {
	c, _ := setup(t, "", nil)

	cmd := &slack_client.SlashCommand{Command: "/echo", Text: "from slack", ChannelId: "C1", UserId: "U1"}
	require.NoError(t, c.Emit(context.Background(), slack_client.EventSlashCommand, cmd, cmd.Msg()))
	require.Equal(t, []string{"from slack"}, c.replies)

	unknown := &slack_client.SlashCommand{Command: "/unknown"}
	require.NoError(t, c.Emit(context.Background(), slack_client.EventSlashCommand, unknown))
	require.Len(t, c.replies, 1)
}

func TestHelp(t *testing.T) {
	c, _ := setup(t, "", map[string]string{
		"commands/ping.toml": "run = 'echo pong'\ndescription = 'Replies pong.'\nalias = ['p']\n",
	})

	say(t, c, "!help")
	require.Equal(t, "*General*\n  help: Lists the available commands, or describes one.\n  echo: Repeats what you say.\n\n*Unsorted*\n  ping: Replies pong.", c.last(t))

	say(t, c, "!h P")
	require.Equal(t, "*ping* (Unsorted)\nReplies pong.\nUsage: No usage provided\nExample: No example provided\nAliases: p", c.last(t))

	say(t, c, "!help missing")
	require.Equal(t, "No command named missing.", c.last(t))
}

func TestKarma(t *testing.T) {
	c, _ := setup(t, "karma", map[string]string{
		"services/karma.toml": "type = 'kv'\n",
	})

	say(t, c, "gopher++ rust-- gopher++ plain")
	say(t, c, "!score gopher")
	require.Equal(t, "Score for gopher is 2", c.last(t))

	say(t, c, "!karma rust")
	require.Equal(t, "Score for rust is -1", c.last(t))

	say(t, c, "!score nobody")
	require.Equal(t, "Score for nobody is 0", c.last(t))

	say(t, c, "!score")
	require.Equal(t, "I need a name to look up the score for.", c.last(t))
}

func TestKarma_MissingService(t *testing.T) {
	c, _ := setup(t, "karma", nil)

	err := c.Emit(context.Background(), slack_client.EventMessage, &slack.Msg{Text: "gopher++"})
	require.Error(t, err)
}
