package slack_client

import (
	"net/http"
	"strings"

	"github.com/gorilla/schema"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// SlashCommand is a slash command webhook as posted by Slack.
type SlashCommand struct {
	Token       string `schema:"token"`
	TeamId      string `schema:"team_id"`
	TeamDomain  string `schema:"team_domain"`
	ChannelId   string `schema:"channel_id"`
	ChannelName string `schema:"channel_name"`
	UserId      string `schema:"user_id"`
	UserName    string `schema:"user_name"`
	Command     string `schema:"command"`
	Text        string `schema:"text"`
	ResponseUrl string `schema:"response_url"`
	TriggerId   string `schema:"trigger_id"`
}

// Msg builds the message context for the slash command. Its text is the full
// invocation, e.g. "/ping a b".
func (sc *SlashCommand) Msg() *slack.Msg {
	return &slack.Msg{
		Channel: sc.ChannelId,
		User:    sc.UserId,
		Text:    strings.TrimSpace(sc.Command + " " + sc.Text),
	}
}

// handleSlackCommand decodes a slash command webhook and emits it on the bus.
// The request is acked with an empty body; command output is posted separately.
func (c *Client) handleSlackCommand(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		c.l.Error("error parsing form. Invalid slack command hook.", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	cmd := &SlashCommand{}
	err = decoder.Decode(cmd, r.PostForm)
	if err != nil {
		c.l.Error("error decoding slack command.", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if cmd.Command == "" {
		c.l.Error("slash command without a command")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	c.l.Info("received slash command", zap.String("command", cmd.Command), zap.String("user_id", cmd.UserId))
	c.dispatch(EventSlashCommand, cmd, cmd.Msg())

	w.WriteHeader(http.StatusOK)
}
