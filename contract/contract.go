//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"dm-relay/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
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

// ConnectionSink is the non-owning handle to a user's live connection.
// Push is fire-and-forget from the relay's point of view: a failed push is
// the caller's signal that the connection is gone, nothing more.
type ConnectionSink interface {
	Push(ctx context.Context, p domain.Payload) error
}

// IPresence maps a user identity to its single live connection handle.
type IPresence interface {
	Bind(userID string, sink ConnectionSink)
	Unbind(userID string, sink ConnectionSink)
	Resolve(userID string) (ConnectionSink, bool)
	Online() []string
}
