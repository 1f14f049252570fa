package e2e_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftline/driftline-go/citest/testutil"
)

var server *testutil.ChatServer

func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "E2E Suite")
}

var _ = BeforeSuite(func() {
	server = testutil.StartChatServer()
})

var _ = AfterSuite(func() {
	if server != nil {
		server.Stop()
	}
})
