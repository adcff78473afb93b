package karma

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/data_store/boltdb"
	"github.com/jirwin/modbot/pkg/framework"
	"github.com/jirwin/modbot/pkg/slack_client"
)

// DefaultService is the kv service karma is kept in.
const DefaultService = "karma"

var (
	ppRegex = regexp.MustCompile(`.+\+\+$`)
	mmRegex = regexp.MustCompile(`.+--$`)
)

func store(fw *framework.Framework, service string) (*boltdb.Store, error) {
	v, ok := fw.Services().Get(service)
	if !ok {
		return nil, fmt.Errorf("karma: no service named '%s'", service)
	}
	s, ok := v.(*boltdb.Store)
	if !ok {
		return nil, fmt.Errorf("karma: service '%s' is not a kv service", service)
	}

	return s, nil
}

func scoreCommand(service string) framework.CommandFunc {
	return func(ctx context.Context, args []string, msg *slack.Msg, fw *framework.Framework) error {
		if len(args) == 0 {
			return fw.Reply(ctx, msg, "I need a name to look up the score for.")
		}

		s, err := store(fw, service)
		if err != nil {
			return err
		}

		name := strings.Join(args, " ")
		val, err := s.Get(name)
		if err != nil {
			fw.Logger().Error("unable to get score", zap.String("name", name), zap.Error(err))
			return err
		}

		score := string(val)
		if val == nil {
			score = "0"
		}

		return fw.Reply(ctx, msg, fmt.Sprintf("Score for %s is %s", name, score))
	}
}

func adjust(delta int) func([]byte) ([]byte, error) {
	return func(val []byte) ([]byte, error) {
		karma := 0
		if val != nil {
			var err error
			karma, err = strconv.Atoi(string(val))
			if err != nil {
				return nil, err
			}
		}

		return []byte(strconv.Itoa(karma + delta)), nil
	}
}

func karmaHook(service string) framework.EventFunc {
	return func(ctx context.Context, args []any, fw *framework.Framework) error {
		if len(args) == 0 {
			return nil
		}
		msg, ok := args[0].(*slack.Msg)
		if !ok || msg.BotID != "" {
			return nil
		}

		var s *boltdb.Store
		for _, t := range strings.Fields(msg.Text) {
			delta := 0
			var match string
			if match = ppRegex.FindString(t); match != "" {
				delta = 1
			} else if match = mmRegex.FindString(t); match != "" {
				delta = -1
			} else {
				continue
			}

			if s == nil {
				var err error
				s, err = store(fw, service)
				if err != nil {
					return err
				}
			}

			item := match[:len(match)-2]
			err := s.GetAndUpdate(item, adjust(delta))
			if err != nil {
				fw.Logger().Error("error updating karma", zap.String("token", t), zap.Error(err))
			}
		}

		return nil
	}
}

// Register returns the score command and the message hook that counts "name++"
// and "name--", both backed by the kv service called service.
func Register(service string) (framework.CommandModule, framework.EventModule) {
	if service == "" {
		service = DefaultService
	}

	cmd := framework.CommandModule{
		Name:        "score",
		Run:         scoreCommand(service),
		Alias:       []string{"karma"},
		Description: "Shows the karma score for a name.",
		Usage:       "score <name>",
		Example:     "score gopher",
		Group:       "Fun",
	}
	hook := framework.EventModule{
		Name: slack_client.EventMessage,
		Run:  karmaHook(service),
	}

	return cmd, hook
}
