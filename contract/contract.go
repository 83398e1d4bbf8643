//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"dm-relay/domain"
	"dm-relay/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself, the supervisor restarts it on panic.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker for logging.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Emitter is the outbound half of the transport.
// Implementations must not block the caller on network I/O.
type Emitter interface {
	EmitTo(connID domain.ConnectionID, name event.Name, payload any)
	Broadcast(name event.Name, payload any, excluding ...domain.ConnectionID)
}

type IPresenceRegistry interface {
	Register(connID domain.ConnectionID, username string) (domain.User, error)
	LookupByUsername(username string) (domain.User, bool)
	LookupByConnection(connID domain.ConnectionID) (domain.User, bool)
	Remove(connID domain.ConnectionID) (domain.User, bool)
	ListOthers(excluding string) []domain.User
	Len() int
}

type IConversationStore interface {
	AppendMessage(from, to, content string) (domain.Message, error)
	History(userA, userB string) ([]domain.Message, error)
	MarkAllRead(reader, counterpart string) (int, error)
	UnreadCount(owner, counterpart string) (int, error)
	Partners(username string) ([]string, error)
	Conversations() int
	Close() error
}

// ContentFilter rewrites message content before it is stored.
type ContentFilter interface {
	Censor(original string) (string, []string)
}

type ICoordinator interface {
	Handle(cmd domain.Command)
}

// IDispatcher hands inbound commands to the coordinator one at a time.
type IDispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) error
}
