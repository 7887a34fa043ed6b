package queue

import (
	"github.com/hibiken/asynq"
)

// HandlersRegistry collects task handlers before the worker starts
// consuming. Wire everything up in main; registration after Run is not
// supported.
type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

// Register binds taskType to handler. Registering the same type twice
// panics inside asynq, which is the right outcome for a wiring bug.
func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

// Mux returns the assembled mux for the asynq server to run.
func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}
