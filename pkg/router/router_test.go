package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"kiosk-controller/pkg/router"
)

func TestRouter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Router Suite")
}

var _ = Describe("Router", func() {
	It("serves the splash page by default", func() {
		r := router.New("<html>splash</html>", "AIDA64 RemoteSensor")
		srv := r.Server(0, nil)
		ts := httptest.NewServer(srv.Handler)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/splash")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("reflects updates in /state.json", func() {
		r := router.New("<html>splash</html>", "AIDA64 RemoteSensor")
		now := time.Now()
		r.Update("UP", "192.168.1.50", "http://192.168.1.50:1111/", now)

		srv := r.Server(0, nil)
		ts := httptest.NewServer(srv.Handler)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/state.json")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var state router.State
		Expect(json.NewDecoder(resp.Body).Decode(&state)).To(Succeed())
		Expect(state.Mode).To(Equal("UP"))
		Expect(state.TargetIP).To(Equal("192.168.1.50"))
		Expect(state.URL).To(Equal("http://192.168.1.50:1111/"))
	})

	It("serves the polling shell page at /", func() {
		r := router.New("<html>splash</html>", "AIDA64 RemoteSensor")
		srv := r.Server(0, nil)
		ts := httptest.NewServer(srv.Handler)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("404s on unknown paths", func() {
		r := router.New("<html>splash</html>", "AIDA64 RemoteSensor")
		srv := r.Server(0, nil)
		ts := httptest.NewServer(srv.Handler)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/nope")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})
})
