package framework

import (
	"errors"

	"github.com/jirwin/modbot/pkg/module_loader"
)

var (
	// ErrConfiguration covers bad options, a missing client and missing plugin directories.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidCommand is returned for a command module without a run entry point.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrInvalidEvent is returned for an event module without a run entry point.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrModuleLoad is returned when a plugin file can't be read, decoded or compiled.
	ErrModuleLoad = module_loader.ErrModuleLoad
	// ErrNoReplier is returned by Reply when the client can't send messages.
	ErrNoReplier = errors.New("client does not support replies")
)
