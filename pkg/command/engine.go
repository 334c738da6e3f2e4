// Package command implements the reversible edit log over the diagram graph.
//
// Every structural mutation goes through a Command: a value object carrying
// enough captured state to both apply and exactly reverse one user-level
// edit. Mutating the store directly bypasses the undo/redo contract and is
// forbidden. Composite edits are one command applying children in order and
// reverting them in reverse order, so undo is never partial.
package command

import (
	"errors"
	"fmt"

	"github.com/opmstudio/engine/pkg/metrics"
)

// Benign signals: an empty stack is reported, never a crash.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Status tracks whether a command's effect is currently present in the store.
type Status uint8

const (
	Pending Status = iota
	Applied
)

// Command is one reversible edit. Redo on an Applied command and Undo on a
// Pending command are programming errors and panic; the Base helper enforces
// the state machine for concrete commands.
type Command interface {
	Name() string
	Redo() error
	Undo() error
}

// Base carries the name and Pending/Applied state machine shared by all
// concrete commands. Embed it and call MarkApplied/MarkPending around the
// actual mutation.
type Base struct {
	name   string
	status Status
}

// NewBase returns a Pending base with the given display name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the command's display name.
func (b *Base) Name() string {
	return b.name
}

// Status returns the command's current state.
func (b *Base) Status() Status {
	return b.status
}

// EnsurePending panics unless the command is Pending. Concrete commands call
// it at the top of Redo so a double redo fails before touching the store.
func (b *Base) EnsurePending() {
	if b.status != Pending {
		panic(fmt.Sprintf("command %q: redo while already applied", b.name))
	}
}

// EnsureApplied panics unless the command is Applied.
func (b *Base) EnsureApplied() {
	if b.status != Applied {
		panic(fmt.Sprintf("command %q: undo while not applied", b.name))
	}
}

// MarkApplied transitions Pending -> Applied, panicking on a double redo.
func (b *Base) MarkApplied() {
	if b.status == Applied {
		panic(fmt.Sprintf("command %q: redo while already applied", b.name))
	}
	b.status = Applied
}

// MarkPending transitions Applied -> Pending, panicking on a double undo.
func (b *Base) MarkPending() {
	if b.status == Pending {
		panic(fmt.Sprintf("command %q: undo while not applied", b.name))
	}
	b.status = Pending
}

// Engine holds the linear undo/redo log: a done stack (most recently
// applied last) and an undone stack. A new edit invalidates the redo
// branch; there is no redo tree.
type Engine struct {
	done    []Command
	undone  []Command
	metrics *metrics.Registry
}

// NewEngine creates an empty command engine.
func NewEngine() *Engine {
	return &Engine{}
}

// SetMetrics attaches a metrics registry; nil disables instrumentation.
func (e *Engine) SetMetrics(m *metrics.Registry) {
	e.metrics = m
}

// Execute applies the command and pushes it onto the done stack, clearing
// the redo branch. If Redo fails, the log is unchanged.
func (e *Engine) Execute(cmd Command) error {
	if err := cmd.Redo(); err != nil {
		return err
	}
	e.done = append(e.done, cmd)
	e.undone = nil
	if e.metrics != nil {
		e.metrics.CommandsExecuted.WithLabelValues(cmd.Name()).Inc()
	}
	return nil
}

// Undo reverses the most recently applied command. Returns ErrNothingToUndo
// on an empty stack.
func (e *Engine) Undo() error {
	if len(e.done) == 0 {
		return ErrNothingToUndo
	}
	cmd := e.done[len(e.done)-1]
	if err := cmd.Undo(); err != nil {
		return err
	}
	e.done = e.done[:len(e.done)-1]
	e.undone = append(e.undone, cmd)
	if e.metrics != nil {
		e.metrics.CommandsUndone.Inc()
	}
	return nil
}

// Redo re-applies the most recently undone command. Returns ErrNothingToRedo
// on an empty stack.
func (e *Engine) Redo() error {
	if len(e.undone) == 0 {
		return ErrNothingToRedo
	}
	cmd := e.undone[len(e.undone)-1]
	if err := cmd.Redo(); err != nil {
		return err
	}
	e.undone = e.undone[:len(e.undone)-1]
	e.done = append(e.done, cmd)
	if e.metrics != nil {
		e.metrics.CommandsRedone.Inc()
	}
	return nil
}

// CanUndo reports whether the done stack is non-empty.
func (e *Engine) CanUndo() bool {
	return len(e.done) > 0
}

// CanRedo reports whether the undone stack is non-empty.
func (e *Engine) CanRedo() bool {
	return len(e.undone) > 0
}

// Depth returns the sizes of the done and undone stacks.
func (e *Engine) Depth() (done, undone int) {
	return len(e.done), len(e.undone)
}

// Clear drops both stacks, e.g. after loading a new diagram.
func (e *Engine) Clear() {
	e.done = nil
	e.undone = nil
}
