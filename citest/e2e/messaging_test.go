package e2e_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	driftline "github.com/driftline/driftline-go"
	"github.com/driftline/driftline-go/citest/testutil"
	"github.com/driftline/driftline-go/internal/wire"
	"github.com/driftline/driftline-go/pkg/types"
)

var _ = Describe("Messaging", func() {
	var (
		client *driftline.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		client, err = driftline.New(driftline.Options{
			ServerURL:         server.BaseURL,
			ReconnectInterval: 50 * time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
		_, err = client.LoginWithPassword(ctx, testutil.TestLoginID, testutil.TestPassword)
		Expect(err).NotTo(HaveOccurred())

		Expect(client.Start(ctx)).To(Succeed())
		Eventually(client.ConnectionState).Should(Equal("connected"))
	})

	AfterEach(func() {
		client.Dispose()
	})

	It("should round-trip a post over the HTTP API", func() {
		created, err := client.CreatePost(ctx, "town-square", "hello from citest")
		Expect(err).NotTo(HaveOccurred())
		Expect(created.ID).NotTo(BeEmpty())

		fetched, err := client.GetPost(ctx, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(fetched.Message).To(Equal("hello from citest"))

		Expect(client.DeletePost(ctx, created.ID)).To(Succeed())
		_, err = client.GetPost(ctx, created.ID)
		Expect(err).To(HaveOccurred())
	})

	It("should deliver other users' posts and suppress its own", func() {
		messages := make(chan types.MessageEvent, 8)
		client.OnMessage(func(ev types.MessageEvent) { messages <- ev })

		// The client's own post comes back over the stream too, but the
		// self-origin filter must drop it.
		_, err := client.CreatePost(ctx, "town-square", "talking to myself")
		Expect(err).NotTo(HaveOccurred())

		server.PushPost("u-peer", "town-square", "hello bot")

		var ev types.MessageEvent
		Eventually(messages).Should(Receive(&ev))
		Expect(ev.Post.UserID).To(Equal("u-peer"))
		Expect(ev.Post.Message).To(Equal("hello bot"))
		Expect(ev.CorrelationID).NotTo(BeEmpty())
		Consistently(messages, 200*time.Millisecond).ShouldNot(Receive())
	})

	It("should surface every event kind through the any-event stream", func() {
		kinds := make(chan string, 16)
		client.OnAnyEvent(func(ev types.AnyEvent) { kinds <- ev.Kind })

		expected := []string{
			wire.EventPosted,
			wire.EventHello,
			wire.EventTyping,
			wire.EventPostEdited,
			wire.EventPostDeleted,
			wire.EventChannelCreated,
			wire.EventUserUpdated,
		}

		server.PushPost("u-peer", "town-square", "ping")
		for _, kind := range expected[1:] {
			server.Push(wire.Frame{Event: kind, Data: []byte(`{}`)})
		}

		seen := map[string]bool{}
		Eventually(func() int {
			for {
				select {
				case k := <-kinds:
					seen[k] = true
				default:
					return len(seen)
				}
			}
		}).Should(BeNumerically(">=", len(expected)))
		for _, kind := range expected {
			Expect(seen).To(HaveKey(kind))
		}
	})
})
