package e2e_test

import (
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	driftline "github.com/driftline/driftline-go"
	"github.com/driftline/driftline-go/citest/testutil"
	"github.com/driftline/driftline-go/pkg/types"
)

var _ = Describe("Connection Lifecycle", func() {
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
		_, err = client.LoginWithToken(ctx, testutil.TestToken)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		client.Dispose()
	})

	It("should authenticate the stream and report connected", func() {
		connected := make(chan types.ConnectedEvent, 1)
		client.OnConnected(func(ev types.ConnectedEvent) {
			select {
			case connected <- ev:
			default:
			}
		})

		Expect(client.Start(ctx)).To(Succeed())
		Eventually(connected).Should(Receive())
		Expect(client.ConnectionState()).To(Equal("connected"))

		Expect(client.Stop()).To(Succeed())
		Expect(client.ConnectionState()).To(Equal("disconnected"))
	})

	It("should reconnect after the server drops the stream", func() {
		var connects atomic.Int32
		client.OnConnected(func(types.ConnectedEvent) { connects.Add(1) })

		disconnected := make(chan types.DisconnectedEvent, 4)
		client.OnDisconnected(func(ev types.DisconnectedEvent) {
			select {
			case disconnected <- ev:
			default:
			}
		})

		Expect(client.Start(ctx)).To(Succeed())
		Eventually(func() int32 { return connects.Load() }).Should(BeNumerically(">=", 1))

		server.CloseStreams()

		var ev types.DisconnectedEvent
		Eventually(disconnected).Should(Receive(&ev))
		Expect(ev.Reason).To(Equal("server restart"))

		Eventually(func() int32 { return connects.Load() }).Should(BeNumerically(">=", 2))
		Expect(client.Stop()).To(Succeed())
	})

	It("should run a single stream after a restart without Stop", func() {
		Expect(client.Start(ctx)).To(Succeed())
		Eventually(client.ConnectionState).Should(Equal("connected"))

		Expect(client.Start(ctx)).To(Succeed())
		Eventually(client.ConnectionState).Should(Equal("connected"))

		Eventually(server.ActiveStreams).Should(Equal(1))
		Consistently(server.ActiveStreams, 200*time.Millisecond).Should(Equal(1))

		Expect(client.Stop()).To(Succeed())
	})

	It("should answer correlated stream requests", func() {
		Expect(client.Start(ctx)).To(Succeed())
		Eventually(client.ConnectionState).Should(Equal("connected"))

		data, err := client.StreamRequest(ctx, "get_statuses", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(testutil.TestUserID))
	})
})
