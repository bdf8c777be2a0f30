package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"prodplex.app/relay/common/logger"
	"prodplex.app/relay/core/config"
)

var _ = Describe("LogFields", func() {
	It("merges newer values over older ones", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			DispatchID: logger.Ptr(int64(1)),
			Component:  "relay.http",
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			WorkflowType: logger.Ptr("dev_planning"),
			Component:    "relay.worker",
		})

		fields := logger.GetLogFields(ctx)
		Expect(*fields.DispatchID).To(Equal(int64(1)))
		Expect(*fields.WorkflowType).To(Equal("dev_planning"))
		Expect(fields.Component).To(Equal("relay.worker"))
	})

	It("returns empty fields for a bare context", func() {
		Expect(logger.GetLogFields(context.Background())).To(Equal(logger.LogFields{}))
	})
})

var _ = Describe("TraceHandler", func() {
	It("adds context fields to records", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewTraceHandler(slog.NewJSONHandler(&buf, nil)))

		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			DispatchID: logger.Ptr(int64(42)),
			EventType:  logger.Ptr("task_completed"),
			Agent:      logger.Ptr("dev"),
			Component:  "relay.worker.bridge",
		})
		log.InfoContext(ctx, "event relayed")

		var record map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
		Expect(record).To(HaveKeyWithValue("dispatch_id", BeNumerically("==", 42)))
		Expect(record).To(HaveKeyWithValue("event_type", "task_completed"))
		Expect(record).To(HaveKeyWithValue("agent", "dev"))
		Expect(record).To(HaveKeyWithValue("component", "relay.worker.bridge"))
		Expect(record).NotTo(HaveKey("trace_id"))
	})

	It("uses JSON output in production without OTel", func() {
		var buf bytes.Buffer
		h := logger.NewHandler(config.Config{Env: "production"}, &buf)
		slog.New(h).Info("hello")
		Expect(json.Valid(buf.Bytes())).To(BeTrue())
	})
})

var _ = Describe("Truncate", func() {
	It("keeps short strings", func() {
		Expect(logger.Truncate("abc", 5)).To(Equal("abc"))
	})

	It("cuts long strings", func() {
		Expect(logger.Truncate("abcdef", 3)).To(Equal("abc..."))
	})
})
