package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"prodplex.app/relay/internal/backend"
	"prodplex.app/relay/internal/http/handler"
)

var _ = Describe("BackendHandler", func() {
	var (
		router *gin.Engine
		client *mockBackendClient
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		client = &mockBackendClient{
			workflows: []backend.WorkflowInfo{{Type: "sprint_planning", Description: "Plan sprints", Agents: []string{"dev"}}},
			agents:    map[string]backend.AgentInfo{"dev": {Name: "dev", Status: "idle", Goal: "Ship"}},
		}
		h := handler.NewBackendHandler(client)
		router.GET("/backend/workflows", h.Workflows)
		router.GET("/backend/agents", h.Agents)
		router.GET("/backend/health", h.Health)
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	It("proxies the backend views", func() {
		w := get("/backend/workflows")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"type":"sprint_planning"`))

		w = get("/backend/agents")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"count":1`))

		w = get("/backend/health")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"status":"healthy"`))
	})

	It("answers 502 when the backend is down", func() {
		client.err = errors.New("dial tcp: connection refused")
		Expect(get("/backend/workflows").Code).To(Equal(http.StatusBadGateway))
		Expect(get("/backend/agents").Code).To(Equal(http.StatusBadGateway))
		Expect(get("/backend/health").Code).To(Equal(http.StatusBadGateway))
	})
})
