package browser_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"kiosk-controller/pkg/browser"
)

func TestBrowser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Browser Suite")
}

var _ = Describe("Supervisor", func() {
	It("reports not running for a profile directory nothing is using", func() {
		s := browser.New("http://127.0.0.1:8765/", "/nonexistent/kiosk-profile-probe-only",
			5*time.Second, 2*time.Second, "AIDA64 RemoteSensor", nil)
		Expect(s.IsRunning(context.Background())).To(BeFalse())
	})

	It("Navigate is intentionally unimplemented", func() {
		s := browser.New("http://127.0.0.1:8765/", "/nonexistent/kiosk-profile-probe-only",
			5*time.Second, 2*time.Second, "AIDA64 RemoteSensor", nil)
		Expect(s.Navigate("http://example.com")).To(HaveOccurred())
	})

	It("attempts to start a browser that is not running", func() {
		s := browser.New("http://127.0.0.1:1/", "/nonexistent/kiosk-profile-ensure-only",
			5*time.Second, 2*time.Second, "AIDA64 RemoteSensor", nil)
		// No firefox binary is expected in this environment, so Start errors
		// out; EnsureRunning should still report the attempted reason.
		restarted, reason, _ := s.EnsureRunning(context.Background(), time.Second, time.Now())
		Expect(restarted).To(BeTrue())
		Expect(reason).To(Equal("not_running"))
	})
})
