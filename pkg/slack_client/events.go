package slack_client

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"
)

// handleSlackEvent parses an Events API request and emits the inner event on the bus.
func (c *Client) handleSlackEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		c.l.Error("unable to read event body", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		c.l.Error("unable to parse event", zap.String("event", string(body)), zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch ev.Type {
	case slackevents.URLVerification:
		urlEvent, ok := ev.Data.(*slackevents.EventsAPIURLVerificationEvent)
		if !ok {
			c.l.Error("unexpected data type for url validation")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-type", "text/plain")
		_, _ = w.Write([]byte(urlEvent.Challenge))
		return

	case slackevents.CallbackEvent:
		switch iev := ev.InnerEvent.Data.(type) {
		case *slackevents.MessageEvent:
			c.dispatch(EventMessage, &slack.Msg{
				Channel:         iev.Channel,
				User:            iev.User,
				Text:            iev.Text,
				Timestamp:       iev.TimeStamp,
				ThreadTimestamp: iev.ThreadTimeStamp,
				BotID:           iev.BotID,
				Username:        iev.Username,
				SubType:         iev.SubType,
			})

		case *slackevents.AppMentionEvent:
			c.dispatch(EventAppMention, &slack.Msg{
				Channel:         iev.Channel,
				User:            iev.User,
				Text:            iev.Text,
				Timestamp:       iev.TimeStamp,
				ThreadTimestamp: iev.ThreadTimeStamp,
			})

		case *slackevents.ReactionAddedEvent:
			c.dispatch(EventReactionAdded, iev)

		case *slackevents.MemberJoinedChannelEvent:
			c.dispatch(EventMemberJoinedChannel, iev)

		default:
			c.l.Debug("unhandled event", zap.Any("event", iev))
		}
	}

	w.WriteHeader(http.StatusOK)
}
