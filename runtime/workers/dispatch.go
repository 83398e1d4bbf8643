package workers

import (
	"context"
	"dm-relay/contract"
	"dm-relay/domain"
	"fmt"
	"log/slog"
)

// DispatchWorker is the single dispatch queue in front of the coordinator.
// Commands from every connection are funnelled into one channel and handled
// to completion, one at a time, by Run.
// The channel outlives Run so queued commands survive a supervised restart.
type DispatchWorker struct {
	coordinator contract.ICoordinator
	commands    chan domain.Command
	log         *slog.Logger
}

func NewDispatchWorker(coordinator contract.ICoordinator, bufferSize int, log *slog.Logger) *DispatchWorker {
	return &DispatchWorker{
		coordinator: coordinator,
		commands:    make(chan domain.Command, bufferSize),
		log:         log,
	}
}

// Dispatch enqueues cmd, blocking while the queue is full.
func (w *DispatchWorker) Dispatch(ctx context.Context, cmd domain.Command) error {
	select {
	case w.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *DispatchWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping dispatch worker")
			return nil
		case cmd := <-w.commands:
			w.log.Debug("Handling command", "type", fmt.Sprintf("%T", cmd), "connection_id", cmd.ConnID())
			w.coordinator.Handle(cmd)
		}
	}
}

// Pending returns the number of queued commands.
func (w *DispatchWorker) Pending() int {
	return len(w.commands)
}

func (w *DispatchWorker) Capacity() int {
	return cap(w.commands)
}
