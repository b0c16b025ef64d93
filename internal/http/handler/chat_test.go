package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"roomlog.app/chatd/internal/http/handler"
	"roomlog.app/chatd/internal/model"
	"roomlog.app/chatd/internal/service"
)

var _ = Describe("ChatHandler", func() {
	var (
		router *gin.Engine
		svc    *mockChatService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockChatService{}
		h := handler.NewChatHandler(svc)
		router.POST("/api/chat", h.Chat)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns 200 with the reply and full transcript", func() {
		now := time.Now().UTC()
		svc.sendFn = func(_ context.Context, params service.SendParams) (*service.TurnResult, error) {
			Expect(params.RoomID).To(Equal("demo"))
			Expect(params.Message).To(Equal("hello"))
			return &service.TurnResult{
				Reply: "hi",
				Messages: []model.TranscriptEntry{
					{Role: model.RoleUser, Content: "hello", Timestamp: now},
					{Role: model.RoleAssistant, Content: "hi", Timestamp: now},
				},
			}, nil
		}

		w := post(`{"roomId":"demo","message":"hello"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["reply"]).To(Equal("hi"))
		messages, ok := resp["messages"].([]any)
		Expect(ok).To(BeTrue())
		Expect(messages).To(HaveLen(2))
		first, ok := messages[0].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(first["role"]).To(Equal("user"))
		Expect(first["content"]).To(Equal("hello"))
	})

	It("returns 400 when the message is empty", func() {
		svc.sendFn = func(_ context.Context, params service.SendParams) (*service.TurnResult, error) {
			if strings.TrimSpace(params.Message) == "" {
				return nil, service.ErrEmptyMessage
			}
			return &service.TurnResult{}, nil
		}

		w := post(`{"roomId":"demo","message":"   "}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("message is required"))
	})

	It("returns 400 when the body is missing entirely", func() {
		svc.sendFn = func(_ context.Context, params service.SendParams) (*service.TurnResult, error) {
			Expect(params.Message).To(BeEmpty())
			return nil, service.ErrEmptyMessage
		}

		w := post(``)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 502 when the inference collaborator fails", func() {
		svc.sendFn = func(_ context.Context, _ service.SendParams) (*service.TurnResult, error) {
			return nil, service.ErrInferenceFailed
		}

		w := post(`{"message":"hello"}`)

		Expect(w.Code).To(Equal(http.StatusBadGateway))
		Expect(w.Body.String()).To(ContainSubstring("inference service unavailable"))
	})

	It("returns an opaque 500 on storage failure", func() {
		svc.sendFn = func(_ context.Context, _ service.SendParams) (*service.TurnResult, error) {
			return nil, errors.New("pq: connection refused to 10.0.0.3")
		}

		w := post(`{"message":"hello"}`)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).NotTo(ContainSubstring("10.0.0.3"))
		Expect(w.Body.String()).To(ContainSubstring("error"))
	})
})
