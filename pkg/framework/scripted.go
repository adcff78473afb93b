package framework

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/module_loader"
	"github.com/jirwin/modbot/pkg/script"
)

// Environment variables handed to script plugins.
const (
	EnvCommand  = "MODBOT_COMMAND"
	EnvEvent    = "MODBOT_EVENT"
	EnvChannel  = "MODBOT_CHANNEL"
	EnvUser     = "MODBOT_USER"
	EnvText     = "MODBOT_TEXT"
	EnvTS       = "MODBOT_TS"
	EnvThreadTS = "MODBOT_THREAD_TS"
	EnvServices = "MODBOT_SERVICES"
)

type scriptCommand struct {
	name   string
	dir    string
	script *script.Script
}

func newScriptCommand(m *module_loader.Module, dir string) (*scriptCommand, error) {
	s, err := script.Compile(m.Path, m.Manifest.Run)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %v", ErrModuleLoad, m.Path, err)
	}

	return &scriptCommand{
		name:   m.Name,
		dir:    dir,
		script: s,
	}, nil
}

func (c *scriptCommand) Run(ctx context.Context, args []string, msg *slack.Msg, fw *Framework) error {
	env := fw.scriptEnv(msg)
	env[EnvCommand] = c.name

	return fw.runScript(ctx, c.script, c.dir, args, env, msg)
}

type scriptEvent struct {
	name   string
	dir    string
	script *script.Script
}

func newScriptEvent(m *module_loader.Module, dir string) (*scriptEvent, error) {
	s, err := script.Compile(m.Path, m.Manifest.Run)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %v", ErrModuleLoad, m.Path, err)
	}

	return &scriptEvent{
		name:   m.Name,
		dir:    dir,
		script: s,
	}, nil
}

func (e *scriptEvent) Run(ctx context.Context, args []any, fw *Framework) error {
	var msg *slack.Msg
	params := make([]string, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case *slack.Msg:
			if msg == nil {
				msg = v
			}
			params = append(params, v.Text)
		case string:
			params = append(params, v)
		case fmt.Stringer:
			params = append(params, v.String())
		default:
			params = append(params, fmt.Sprint(v))
		}
	}

	env := fw.scriptEnv(msg)
	env[EnvEvent] = e.name

	return fw.runScript(ctx, e.script, e.dir, params, env, msg)
}

func (fw *Framework) scriptEnv(msg *slack.Msg) map[string]string {
	env := map[string]string{
		EnvServices: strings.Join(fw.services.Names(), " "),
	}
	if msg != nil {
		env[EnvChannel] = msg.Channel
		env[EnvUser] = msg.User
		env[EnvText] = msg.Text
		env[EnvTS] = msg.Timestamp
		env[EnvThreadTS] = msg.ThreadTimestamp
	}

	return env
}

// runScript runs s and sends whatever it printed as a reply to msg.
func (fw *Framework) runScript(ctx context.Context, s *script.Script, dir string, args []string, env map[string]string, msg *slack.Msg) error {
	var stdout, stderr bytes.Buffer
	err := s.Run(ctx, script.RunOpts{
		Args:   args,
		Env:    env,
		Dir:    dir,
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if stderr.Len() > 0 {
		fw.l.Warn("script wrote to stderr", zap.String("script", s.Name()), zap.String("stderr", stderr.String()))
	}
	if err != nil {
		return err
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" || msg == nil {
		return nil
	}

	err = fw.Reply(ctx, msg, out)
	if errors.Is(err, ErrNoReplier) {
		fw.l.Debug("dropping script output, client can't reply", zap.String("script", s.Name()))
		return nil
	}

	return err
}
