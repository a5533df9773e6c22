package history

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// Command represents a reversible edit on the timeline.
//
// Execute applies the edit to the store and then brings the engine in line
// through the adapter. Undo reverses it the same way. A command captures
// exactly the state it needs for both directions and refers to clips,
// tracks and markers by their stable IDs, never by engine handle.
type Command interface {
	// Execute performs the command and returns an error if it fails.
	// A failing Execute must leave the timeline unchanged.
	Execute(tl *timeline.Timeline, sy *render.Adapter) error

	// Undo reverses the command and returns an error if it fails.
	Undo(tl *timeline.Timeline, sy *render.Adapter) error

	// Description returns a human-readable description of the command.
	Description() string
}

// CompoundCommand groups multiple commands as one undo unit.
// Commands execute in order and undo in strictly reverse order.
type CompoundCommand struct {
	Name     string
	Commands []Command
}

// NewCompoundCommand creates a new compound command.
func NewCompoundCommand(name string, commands ...Command) *CompoundCommand {
	return &CompoundCommand{
		Name:     name,
		Commands: commands,
	}
}

// Execute runs all commands in order. If a step fails, the steps already
// applied are undone before the error is returned.
func (c *CompoundCommand) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	for i, cmd := range c.Commands {
		if err := cmd.Execute(tl, sy); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.Commands[j].Undo(tl, sy)
			}
			return fmt.Errorf("compound command '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Undo reverses all commands in reverse order.
func (c *CompoundCommand) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(tl, sy); err != nil {
			return fmt.Errorf("undo compound command '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Description returns the compound command's name.
func (c *CompoundCommand) Description() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Commands) == 1 {
		return c.Commands[0].Description()
	}
	return fmt.Sprintf("%d operations", len(c.Commands))
}

// Add adds a command to the compound command.
func (c *CompoundCommand) Add(cmd Command) {
	c.Commands = append(c.Commands, cmd)
}

// IsEmpty returns true if the compound command has no commands.
func (c *CompoundCommand) IsEmpty() bool {
	return len(c.Commands) == 0
}
