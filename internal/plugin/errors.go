package plugin

import "errors"

// Extension errors.
var (
	// ErrAlreadyLoaded is returned when loading an already loaded extension.
	ErrAlreadyLoaded = errors.New("extension is already loaded")

	// ErrNotLoaded is returned when using an extension that is not loaded.
	ErrNotLoaded = errors.New("extension is not loaded")

	// ErrCommandNotFound is returned when executing an unknown command.
	ErrCommandNotFound = errors.New("command not found")

	// ErrDuplicateCommand is returned when a command id is registered twice.
	ErrDuplicateCommand = errors.New("command already registered")

	// ErrInvalidCommand is returned when a command has no id or callback.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrMissingDependency is returned when a required collaborator is nil.
	ErrMissingDependency = errors.New("missing dependency")
)
