package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"roomlog.app/chatd/core/config"
	"roomlog.app/chatd/internal/llm"
	"roomlog.app/chatd/internal/model"
	"roomlog.app/chatd/internal/room"
	"roomlog.app/chatd/internal/service"
	tstore "roomlog.app/chatd/internal/store"
)

var _ = Describe("ChatService", func() {
	var (
		store     *memStore
		rooms     *room.Registry
		inference *mockInference
		producer  *mockProducer
		svc       service.ChatService
		ctx       context.Context
	)

	newService := func(cfg config.ChatConfig) service.ChatService {
		return service.NewChatService(rooms, inference, producer, cfg, nil)
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemStore()
		rooms = room.NewRegistry(store)
		inference = &mockInference{}
		producer = &mockProducer{}
		svc = newService(config.ChatConfig{})
	})

	It("completes a turn: user entry, then assistant entry, reply returned", func() {
		inference.completeFn = func(_ context.Context, _ []llm.Message) (*llm.Completion, error) {
			return &llm.Completion{Text: "hi there"}, nil
		}

		result, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "hello"})
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Reply).To(Equal("hi there"))
		Expect(result.Messages).To(HaveLen(2))
		Expect(result.Messages[0].Role).To(Equal(model.RoleUser))
		Expect(result.Messages[0].Content).To(Equal("hello"))
		Expect(result.Messages[1].Role).To(Equal(model.RoleAssistant))
		Expect(result.Messages[1].Content).To(Equal("hi there"))
		Expect(result.Messages[1].Timestamp).NotTo(BeTemporally("<", result.Messages[0].Timestamp))
	})

	It("trims the message before persisting", func() {
		result, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "  hello  "})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Messages[0].Content).To(Equal("hello"))
	})

	It("rejects an empty message without touching any actor", func() {
		_, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "   \t\n"})
		Expect(err).To(MatchError(service.ErrEmptyMessage))

		appends, loads := store.calls()
		Expect(appends).To(BeZero())
		Expect(loads).To(BeZero())
	})

	It("routes to the default room when roomId is absent", func() {
		_, err := svc.Send(ctx, service.SendParams{Message: "hello"})
		Expect(err).NotTo(HaveOccurred())

		entries, err := store.Load(ctx, "default")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
	})

	It("prepends the system persona and maps the transcript 1:1 into the prompt", func() {
		var prompt []llm.Message
		inference.completeFn = func(_ context.Context, messages []llm.Message) (*llm.Completion, error) {
			prompt = messages
			return &llm.Completion{Text: "sure"}, nil
		}

		_, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "first"})
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "second"})
		Expect(err).NotTo(HaveOccurred())

		Expect(prompt).To(HaveLen(4)) // system + user + assistant + user
		Expect(prompt[0].Role).To(Equal("system"))
		Expect(prompt[1]).To(Equal(llm.Message{Role: "user", Content: "first"}))
		Expect(prompt[2]).To(Equal(llm.Message{Role: "assistant", Content: "sure"}))
		Expect(prompt[3]).To(Equal(llm.Message{Role: "user", Content: "second"}))
	})

	It("completes the turn with the fallback reply when the response shape is unrecognizable", func() {
		inference.completeFn = func(_ context.Context, _ []llm.Message) (*llm.Completion, error) {
			return &llm.Completion{Raw: json.RawMessage(`{"choices":[]}`)}, nil
		}

		result, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "hello"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Reply).To(Equal(llm.FallbackReply))
		Expect(result.Messages).To(HaveLen(2))
		Expect(result.Messages[1].Content).To(Equal(llm.FallbackReply))
	})

	It("uses the configured fallback reply override", func() {
		svc = newService(config.ChatConfig{FallbackReply: "Sorry, I have nothing to add."})
		inference.completeFn = func(_ context.Context, _ []llm.Message) (*llm.Completion, error) {
			return &llm.Completion{}, nil
		}

		result, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "hello"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Reply).To(Equal("Sorry, I have nothing to add."))
	})

	It("aborts the turn on inference failure, keeping the user entry durable", func() {
		inference.completeFn = func(_ context.Context, _ []llm.Message) (*llm.Completion, error) {
			return nil, errors.New("upstream 503")
		}

		_, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "hello"})
		Expect(err).To(MatchError(service.ErrInferenceFailed))

		entries, loadErr := store.Load(ctx, "demo")
		Expect(loadErr).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Role).To(Equal(model.RoleUser))
	})

	It("propagates storage failures", func() {
		store.appendErr = errors.New("connection refused")

		_, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "hello"})
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(service.ErrEmptyMessage))
	})

	It("publishes a turn event after the transcript is durable", func() {
		_, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "hello"})
		Expect(err).NotTo(HaveOccurred())

		turns := producer.turns()
		Expect(turns).To(HaveLen(1))
		Expect(turns[0].RoomID).To(Equal("demo"))
		Expect(turns[0].Entries).To(Equal(2))
		Expect(turns[0].ID).NotTo(BeZero())
	})

	It("does not fail the turn when publishing the event fails", func() {
		producer.publishFn = func(_ context.Context, _ model.Turn) error {
			return errors.New("redis down")
		}

		result, err := svc.Send(ctx, service.SendParams{RoomID: "demo", Message: "hello"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Messages).To(HaveLen(2))
	})

	It("serializes concurrent turns against one room with no lost updates", func() {
		const turns = 10
		var wg sync.WaitGroup
		wg.Add(turns)
		for i := 0; i < turns; i++ {
			go func() {
				defer wg.Done()
				_, err := svc.Send(ctx, service.SendParams{RoomID: "busy", Message: "ping"})
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		entries, err := store.Load(ctx, "busy")
		Expect(err).NotTo(HaveOccurred())
		// Each turn appends exactly one user and one assistant entry.
		Expect(entries).To(HaveLen(2 * turns))
		for i := 1; i < len(entries); i++ {
			Expect(entries[i].Timestamp).NotTo(BeTemporally("<", entries[i-1].Timestamp))
		}
	})

	It("keeps rooms isolated from each other", func() {
		_, err := svc.Send(ctx, service.SendParams{RoomID: "a", Message: "for a"})
		Expect(err).NotTo(HaveOccurred())

		entries, err := store.Load(ctx, "b")
		Expect(err).To(MatchError(tstore.ErrNotFound))
		Expect(entries).To(BeEmpty())
	})
})
