package framework

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/module_loader"
)

func (fw *Framework) loadEvents(builtins []EventModule) ([]EventModule, error) {
	modules, err := module_loader.Load(fw.paths.Events)
	if err != nil {
		return nil, err
	}

	out := make([]EventModule, 0, len(builtins)+len(modules))
	for _, em := range builtins {
		if em.Run == nil {
			return nil, fmt.Errorf("%w: no '%s' function found in event '%s'", ErrInvalidEvent, entrypoint, em.Name)
		}
		if em.Name == "" {
			return nil, fmt.Errorf("%w: event without a name", ErrConfiguration)
		}
		out = append(out, em)
	}

	for _, m := range modules {
		if strings.TrimSpace(m.Manifest.Run) == "" {
			return nil, fmt.Errorf("%w: no '%s' function found in event '%s'", ErrInvalidEvent, entrypoint, m.Path)
		}

		ev, err := newScriptEvent(m, fw.paths.Events)
		if err != nil {
			return nil, err
		}

		out = append(out, EventModule{
			Name: m.Name,
			Run:  ev,
			Path: m.Path,
		})
	}

	return out, nil
}

// bindEvent subscribes em to the client event of the same name. The framework
// is handed to the event after the emitted arguments.
func (fw *Framework) bindEvent(em EventModule) {
	fw.l.Info("binding event", zap.String("event_name", em.Name), zap.String("path", em.Path))

	run := em.Run
	fw.client.On(em.Name, func(ctx context.Context, args ...any) error {
		return run.Run(ctx, args, fw)
	})
}
