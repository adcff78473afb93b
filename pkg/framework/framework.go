package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/module_loader"
)

const (
	DefaultCommandsPath = "commands"
	DefaultEventsPath   = "events"
	DefaultServicesPath = "services"
	DefaultNamespace    = "services"
)

// Paths locates the three plugin directories. Commands, Events and Services
// are joined onto Base.
type Paths struct {
	Base     string
	Commands string
	Events   string
	Services string
}

func (p Paths) withDefaults() Paths {
	if p.Commands == "" {
		p.Commands = DefaultCommandsPath
	}
	if p.Events == "" {
		p.Events = DefaultEventsPath
	}
	if p.Services == "" {
		p.Services = DefaultServicesPath
	}
	return p
}

// Options configures a Framework.
type Options struct {
	// Client is required.
	Client Client
	Paths  Paths
	// Services is the namespace the services are attached under. Defaults to "services".
	Services string
	Logger   *zap.Logger
	// Commands and Events are registered ahead of the ones found on disk.
	Commands []CommandModule
	Events   []EventModule
}

// Framework owns the command, alias and help registries built at construction.
// The registries are never modified afterwards.
type Framework struct {
	l         *zap.Logger
	client    Client
	paths     Paths
	namespace string

	commands map[string]Command
	aliases  []aliasEntry
	groups   []*Group
	groupIdx map[string]*Group
	warnings []Warning

	services *Services
	closers  []io.Closer
}

// New loads every plugin directory and wires the result into opts.Client.
// Nothing is registered with the client unless every plugin loads.
func New(opts *Options) (*Framework, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: no options provided", ErrConfiguration)
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("%w: no client provided", ErrConfiguration)
	}

	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}

	namespace := opts.Services
	if namespace == "" {
		namespace = DefaultNamespace
	}

	paths, err := resolvePaths(opts.Paths.withDefaults())
	if err != nil {
		return nil, err
	}

	fw := &Framework{
		l:         l.Named("framework"),
		client:    opts.Client,
		paths:     paths,
		namespace: namespace,
		commands:  make(map[string]Command),
		groupIdx:  make(map[string]*Group),
	}

	cmdModules, err := fw.loadCommands(opts.Commands)
	if err != nil {
		return nil, err
	}

	evModules, err := fw.loadEvents(opts.Events)
	if err != nil {
		return nil, err
	}

	svcModules, err := module_loader.Load(paths.Services)
	if err != nil {
		return nil, err
	}

	for _, cm := range cmdModules {
		err = fw.registerCommand(cm)
		if err != nil {
			return nil, err
		}
	}

	err = fw.buildServices(svcModules)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}

	for _, em := range evModules {
		fw.bindEvent(em)
	}

	fw.attachServices()

	fw.l.Info("framework ready",
		zap.Int("commands", len(fw.commands)),
		zap.Int("events", len(evModules)),
		zap.Int("services", fw.services.Len()),
		zap.Int("warnings", len(fw.warnings)),
	)

	return fw, nil
}

func resolvePaths(p Paths) (Paths, error) {
	resolved := Paths{Base: p.Base}
	targets := []struct {
		sub string
		dst *string
	}{
		{p.Commands, &resolved.Commands},
		{p.Events, &resolved.Events},
		{p.Services, &resolved.Services},
	}

	for _, t := range targets {
		abs, err := filepath.Abs(filepath.Join(p.Base, t.sub))
		if err != nil {
			return Paths{}, fmt.Errorf("%w: resolving '%s': %v", ErrConfiguration, t.sub, err)
		}
		if !module_loader.Exists(abs) {
			return Paths{}, fmt.Errorf("%w: location does not exist '%s'", ErrConfiguration, abs)
		}
		*t.dst = abs
	}

	return resolved, nil
}

// Paths returns the resolved, absolute plugin directories.
func (fw *Framework) Paths() Paths {
	return fw.paths
}

func (fw *Framework) Client() Client {
	return fw.client
}

func (fw *Framework) Logger() *zap.Logger {
	return fw.l
}

// Namespace is the name the services were attached to the client under.
func (fw *Framework) Namespace() string {
	return fw.namespace
}

// Warnings returns the non-fatal problems found while registering commands.
func (fw *Framework) Warnings() []Warning {
	out := make([]Warning, len(fw.warnings))
	copy(out, fw.warnings)
	return out
}

// Reply sends text back to where msg came from, if the client can do that.
func (fw *Framework) Reply(ctx context.Context, msg *slack.Msg, text string) error {
	r, ok := fw.client.(Replier)
	if !ok {
		return ErrNoReplier
	}

	return r.Reply(ctx, msg, text)
}

// Close releases resources held by services.
func (fw *Framework) Close() error {
	var errs []error
	for _, c := range fw.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	fw.closers = nil

	return errors.Join(errs...)
}
