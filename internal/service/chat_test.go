package service_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"prodplex.app/relay/common/id"
	"prodplex.app/relay/internal/classifier"
	"prodplex.app/relay/internal/model"
	"prodplex.app/relay/internal/planner"
	"prodplex.app/relay/internal/queue"
	"prodplex.app/relay/internal/service"
)

var _ = Describe("ChatService", func() {
	var (
		ctx       context.Context
		store     *mockDispatchStore
		producer  *mockProducer
		status    *mockStatusPublisher
		plannerMk *mockPlanner
		svc       service.ChatService
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(id.NodeServer)).To(Succeed())

		store = &mockDispatchStore{}
		producer = &mockProducer{}
		status = &mockStatusPublisher{}
		plannerMk = &mockPlanner{}
		svc = service.NewChatService(store, producer, status, plannerMk, true)
	})

	Describe("Analyze", func() {
		It("returns the classifier decision", func() {
			a := svc.Analyze(ctx, "Check GDPR compliance for our EU launch")
			Expect(a.WorkflowType).To(Equal(classifier.CategoryComplianceCheck))
			Expect(a.InputData).To(HaveKeyWithValue("jurisdiction", "EU"))
		})

		It("routes an empty message to the adaptive workflow", func() {
			a := svc.Analyze(ctx, "")
			Expect(a.WorkflowType).To(Equal(classifier.CategoryAdaptive))
			Expect(a.Agents).To(BeEmpty())
		})
	})

	Describe("Dispatch", func() {
		It("persists, announces and enqueues the dispatch", func() {
			project := "proj_1"
			trace := "4bf92f3577b34da6a3ce929d0e0e4736"
			res, err := svc.Dispatch(ctx, service.DispatchParams{
				Message:   "Help me plan the next sprint",
				ProjectID: &project,
				TraceID:   &trace,
			})
			Expect(err).NotTo(HaveOccurred())

			d := res.Dispatch
			Expect(d.ID).NotTo(BeZero())
			Expect(d.Status).To(Equal(model.DispatchStatusQueued))
			Expect(d.WorkflowType).To(Equal("dev_planning"))
			Expect(d.Agents).To(Equal([]string{"dev", "prototype"}))
			Expect(d.UseNemotron).To(BeTrue())
			Expect(*d.ProjectID).To(Equal("proj_1"))
			Expect(res.Analysis.WorkflowType).To(Equal(classifier.CategoryDevPlanning))

			var input map[string]any
			Expect(json.Unmarshal(d.InputData, &input)).To(Succeed())
			Expect(input).To(HaveKeyWithValue("query", "Help me plan the next sprint"))

			Expect(store.created).To(HaveLen(1))

			Expect(status.events).To(HaveLen(1))
			Expect(status.events[0].Type).To(Equal(model.EventDispatchQueued))
			Expect(*status.events[0].DispatchID).To(Equal(d.ID))
			Expect(status.events[0].Source).To(Equal(model.SourceRelay))

			Expect(producer.enqueued).To(Equal([]queue.DispatchMessage{{
				DispatchID:   d.ID,
				WorkflowType: "dev_planning",
				TraceID:      &trace,
				Attempt:      1,
			}}))
		})

		It("honours a per-request nemotron override", func() {
			off := false
			res, err := svc.Dispatch(ctx, service.DispatchParams{Message: "hello", UseNemotron: &off})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Dispatch.UseNemotron).To(BeFalse())
		})

		It("rejects blank messages", func() {
			_, err := svc.Dispatch(ctx, service.DispatchParams{Message: "   "})
			Expect(errors.Is(err, service.ErrEmptyMessage)).To(BeTrue())
			Expect(store.created).To(BeEmpty())
		})

		It("does not enqueue when persisting fails", func() {
			store.createFn = func(context.Context, *model.Dispatch) error { return errors.New("db down") }
			_, err := svc.Dispatch(ctx, service.DispatchParams{Message: "hello"})
			Expect(err).To(MatchError(ContainSubstring("creating dispatch")))
			Expect(producer.enqueued).To(BeEmpty())
		})

		It("marks the dispatch failed when enqueueing fails", func() {
			producer.enqueueFn = func(context.Context, queue.DispatchMessage) error { return errors.New("redis down") }
			_, err := svc.Dispatch(ctx, service.DispatchParams{Message: "hello"})
			Expect(err).To(MatchError(ContainSubstring("enqueueing dispatch")))

			Expect(store.created).To(HaveLen(1))
			Expect(store.failed).To(HaveKeyWithValue(store.created[0].ID, ContainSubstring("redis down")))
		})

		It("survives a status stream outage", func() {
			status.publishFn = func(context.Context, model.StatusEvent) (string, error) {
				return "", errors.New("stream unavailable")
			}
			_, err := svc.Dispatch(ctx, service.DispatchParams{Message: "hello"})
			Expect(err).NotTo(HaveOccurred())
			Expect(producer.enqueued).To(HaveLen(1))
		})
	})

	Describe("Plan", func() {
		It("delegates to the planner", func() {
			plannerMk.planFn = func(_ context.Context, task string, available []string) planner.Plan {
				Expect(available).To(Equal([]string{"dev"}))
				return planner.Plan{Task: task, Agents: []string{"dev"}, Source: planner.SourceLLM}
			}
			plan, err := svc.Plan(ctx, service.PlanParams{Task: "Ship it", Agents: []string{"dev"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Source).To(Equal(planner.SourceLLM))
		})

		It("requires a task", func() {
			_, err := svc.Plan(ctx, service.PlanParams{})
			Expect(errors.Is(err, service.ErrEmptyMessage)).To(BeTrue())
		})
	})
})
