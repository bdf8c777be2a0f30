package service

import (
	"prodplex.app/relay/internal/planner"
	"prodplex.app/relay/internal/queue"
	"prodplex.app/relay/internal/store"
	"prodplex.app/relay/internal/template"
)

type Services struct {
	dispatches  store.DispatchStore
	producer    queue.Producer
	status      queue.StatusPublisher
	planner     planner.Planner
	templates   *template.Engine
	useNemotron bool
}

func NewServices(
	dispatches store.DispatchStore,
	producer queue.Producer,
	status queue.StatusPublisher,
	p planner.Planner,
	templates *template.Engine,
	useNemotron bool,
) *Services {
	return &Services{
		dispatches:  dispatches,
		producer:    producer,
		status:      status,
		planner:     p,
		templates:   templates,
		useNemotron: useNemotron,
	}
}

func (s *Services) Chat() ChatService {
	return NewChatService(s.dispatches, s.producer, s.status, s.planner, s.useNemotron)
}

func (s *Services) Dispatches() DispatchService {
	return NewDispatchService(s.dispatches)
}

func (s *Services) Workflows() WorkflowService {
	return NewWorkflowService(s.templates)
}

func (s *Services) Planner() planner.Planner {
	return s.planner
}
