package worker_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"prodplex.app/relay/internal/backend"
	"prodplex.app/relay/internal/model"
	"prodplex.app/relay/internal/queue"
	"prodplex.app/relay/internal/store"
	"prodplex.app/relay/internal/worker"
)

var _ = Describe("DispatchProcessor", func() {
	var (
		ctx      context.Context
		dispatch *model.Dispatch
		stores   *mockDispatchStore
		client   *mockBackend
		status   *mockStatusPublisher
		p        *worker.DispatchProcessor
		msg      queue.Message
	)

	BeforeEach(func() {
		ctx = context.Background()
		project := "proj_7"
		dispatch = &model.Dispatch{
			ID:           42,
			Message:      "Research competitors in fintech",
			ProjectID:    &project,
			WorkflowType: "research_and_strategy",
			InputData:    json.RawMessage(`{"query":"Research competitors in fintech","sources":["reddit","twitter"]}`),
			UseNemotron:  true,
			Status:       model.DispatchStatusQueued,
		}
		stores = newMockDispatchStore(dispatch)
		client = &mockBackend{runFn: func(context.Context, backend.RunRequest) (*backend.RunResponse, error) {
			return &backend.RunResponse{
				Success:    true,
				Result:     json.RawMessage(`{"workflow_id":"wf_42","status":"completed"}`),
				WorkflowID: "wf_42",
				Status:     "completed",
			}, nil
		}}
		status = &mockStatusPublisher{}
		p = worker.NewDispatchProcessor(stores, client, status)
		msg = queue.Message{ID: "1-0", DispatchID: 42, Attempt: 1}
	})

	It("runs the workflow and records the result", func() {
		Expect(p.Process(ctx, msg)).To(Succeed())

		Expect(client.requests).To(HaveLen(1))
		req := client.requests[0]
		Expect(req.WorkflowType).To(Equal("research_and_strategy"))
		Expect(*req.ProjectID).To(Equal("proj_7"))
		Expect(req.UseNemotron).To(BeTrue())
		Expect(req.InputData).To(HaveKeyWithValue("sources", ConsistOf("reddit", "twitter")))

		Expect(stores.running).To(Equal([]int64{42}))
		Expect(*stores.completed[42]).To(Equal("wf_42"))
		Expect(string(stores.results[42])).To(ContainSubstring("wf_42"))
		Expect(status.types()).To(Equal([]model.EventType{model.EventTaskStarted, model.EventTaskCompleted}))
	})

	It("skips dispatches that already settled", func() {
		dispatch.Status = model.DispatchStatusCompleted
		Expect(p.Process(ctx, msg)).To(Succeed())
		Expect(client.requests).To(BeEmpty())
		Expect(stores.running).To(BeEmpty())
	})

	It("drops messages for unknown dispatches", func() {
		stores.getErr = store.ErrNotFound
		Expect(p.Process(ctx, msg)).To(Succeed())
		Expect(client.requests).To(BeEmpty())
	})

	It("asks for a retry on transient backend errors", func() {
		client.runFn = func(context.Context, backend.RunRequest) (*backend.RunResponse, error) {
			return nil, &backend.APIError{StatusCode: 503}
		}
		err := p.Process(ctx, msg)
		Expect(err).To(HaveOccurred())
		Expect(stores.failed).To(BeEmpty())
	})

	It("fails permanently on client errors", func() {
		client.runFn = func(context.Context, backend.RunRequest) (*backend.RunResponse, error) {
			return nil, &backend.APIError{StatusCode: 422, Detail: "bad input"}
		}
		Expect(p.Process(ctx, msg)).To(Succeed())
		Expect(stores.failed[42]).To(ContainSubstring("bad input"))
		Expect(status.types()).To(Equal([]model.EventType{model.EventTaskStarted, model.EventTaskFailed}))
	})

	It("fails when the backend reports no success", func() {
		client.runFn = func(context.Context, backend.RunRequest) (*backend.RunResponse, error) {
			return &backend.RunResponse{Success: false}, nil
		}
		Expect(p.Process(ctx, msg)).To(Succeed())
		Expect(stores.failed[42]).To(Equal(worker.ErrBackendRejected.Error()))
	})

	It("fails on corrupt input data", func() {
		dispatch.InputData = json.RawMessage(`{oops`)
		Expect(p.Process(ctx, msg)).To(Succeed())
		Expect(client.requests).To(BeEmpty())
		Expect(stores.failed[42]).To(ContainSubstring("decoding input data"))
	})

	It("settles exhausted dispatches through Fail", func() {
		p.Fail(ctx, msg, errors.New("backend returned status 503"))
		Expect(stores.failed[42]).To(Equal("backend returned status 503"))
		Expect(status.types()).To(Equal([]model.EventType{model.EventTaskFailed}))
	})

	It("keeps going when the status stream is down", func() {
		status.err = errors.New("redis unavailable")
		Expect(p.Process(ctx, msg)).To(Succeed())
		Expect(stores.completed).To(HaveKey(int64(42)))
	})
})
