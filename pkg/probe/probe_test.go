package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"kiosk-controller/pkg/probe"
)

func TestProbe(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Probe Suite")
}

func portOf(srv *httptest.Server) int {
	u, _ := url.Parse(srv.URL)
	p, _ := strconv.Atoi(u.Port())
	return p
}

var _ = Describe("Prober", func() {
	It("succeeds on a 200 response", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		p := probe.New(portOf(srv), "/", 500*time.Millisecond, 500*time.Millisecond)
		Expect(p.Check(context.Background(), "127.0.0.1")).To(BeTrue())
	})

	It("fails on a non-200 response", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		p := probe.New(portOf(srv), "/", 500*time.Millisecond, 500*time.Millisecond)
		Expect(p.Check(context.Background(), "127.0.0.1")).To(BeFalse())
	})

	It("fails when nothing is listening", func() {
		p := probe.New(1, "/", 50*time.Millisecond, 50*time.Millisecond)
		Expect(p.Check(context.Background(), "127.0.0.1")).To(BeFalse())
	})

	It("sends the controller's User-Agent", func() {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		p := probe.New(portOf(srv), "/", 500*time.Millisecond, 500*time.Millisecond)
		ok := p.Check(context.Background(), "127.0.0.1")
		Expect(ok).To(BeTrue())
		Expect(gotUA).To(Equal("kiosk-controller/2.1"))
	})
})
