package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/blurmark/internal/blur/wrap"
)

// Hotkey is a key chord. "Mod" is Ctrl on Linux/Windows and Cmd on macOS.
type Hotkey struct {
	Modifiers []string
	Key       string
}

// String returns the chord as "Mod+Shift+Q".
func (h Hotkey) String() string {
	parts := append(append([]string(nil), h.Modifiers...), strings.ToUpper(h.Key))
	return strings.Join(parts, "+")
}

// EditorCallback runs a command against the active editor.
type EditorCallback func(ed wrap.Editor) error

// Command is an editor command contributed by an extension.
type Command struct {
	// ID is the unique identifier, e.g. "blur-selected-text".
	ID string

	// Name is the title shown in the command palette.
	Name string

	// Hotkeys are the default key bindings.
	Hotkeys []Hotkey

	// Source identifies the contributor, used for bulk removal.
	Source string

	// Callback runs the command.
	Callback EditorCallback
}

// Commands is a registry of editor commands.
type Commands struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

// NewCommands creates an empty registry.
func NewCommands() *Commands {
	return &Commands{commands: make(map[string]*Command)}
}

// Register adds cmd.
func (c *Commands) Register(cmd *Command) error {
	if cmd == nil || cmd.ID == "" || cmd.Callback == nil {
		return ErrInvalidCommand
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.commands[cmd.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.ID)
	}
	c.commands[cmd.ID] = cmd
	return nil
}

// Unregister removes a command and reports whether it existed.
func (c *Commands) Unregister(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.commands[id]
	delete(c.commands, id)
	return exists
}

// UnregisterBySource removes every command from source and returns how many
// were removed.
func (c *Commands) UnregisterBySource(source string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for id, cmd := range c.commands {
		if cmd.Source == source {
			delete(c.commands, id)
			count++
		}
	}
	return count
}

// Get returns the command registered under id, or nil.
func (c *Commands) Get(id string) *Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.commands[id]
}

// Lookup returns the command bound to hk, or nil.
func (c *Commands) Lookup(hk Hotkey) *Command {
	want := hk.String()

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cmd := range c.commands {
		for _, h := range cmd.Hotkeys {
			if h.String() == want {
				return cmd
			}
		}
	}
	return nil
}

// Execute runs the command registered under id against ed.
func (c *Commands) Execute(id string, ed wrap.Editor) error {
	cmd := c.Get(id)
	if cmd == nil {
		return fmt.Errorf("%w: %s", ErrCommandNotFound, id)
	}
	return cmd.Callback(ed)
}

// All returns every command sorted by id.
func (c *Commands) All() []*Command {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
