package machine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// invoker runs setup commands in order. When a command fails, every command
// that already succeeded is undone in reverse order and the original error
// is returned. Undo failures are logged and do not stop the rollback.
type invoker struct {
	commands []Command
	executed []Command
	log      *zap.Logger
}

func newInvoker(log *zap.Logger, commands ...Command) *invoker {
	return &invoker{commands: commands, log: log}
}

func (i *invoker) ExecuteAll(ctx context.Context) error {
	for _, cmd := range i.commands {
		if err := cmd.Execute(ctx); err != nil {
			i.log.Error("setup command failed",
				zap.String("command", cmd.Name()),
				zap.Error(err))
			i.undoAll(ctx)
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		i.executed = append(i.executed, cmd)
	}
	return nil
}

func (i *invoker) undoAll(ctx context.Context) {
	i.log.Warn("rolling back machine setup", zap.Int("executed_commands", len(i.executed)))

	for n := len(i.executed) - 1; n >= 0; n-- {
		cmd := i.executed[n]
		if err := cmd.Undo(ctx); err != nil {
			i.log.Error("failed to undo setup command",
				zap.String("command", cmd.Name()),
				zap.Error(err))
		}
	}
	i.executed = nil
}
