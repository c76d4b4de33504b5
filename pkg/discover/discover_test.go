package discover_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"kiosk-controller/pkg/discover"
)

func TestDiscover(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Discover Suite")
}

type fakeChecker struct {
	mu        sync.Mutex
	match     string
	delay     time.Duration
	callCount int
}

func (f *fakeChecker) Check(ctx context.Context, ip string) bool {
	f.mu.Lock()
	f.callCount++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return ip == f.match
}

func cidr(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	Expect(err).NotTo(HaveOccurred())
	return n
}

var _ = Describe("Discover", func() {
	It("refuses networks wider than /20", func() {
		checker := &fakeChecker{}
		_, err := discover.Discover(context.Background(), checker, discover.Options{
			Network: cidr("10.0.0.0/16"),
			Workers: 4,
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("wider than"))
	})

	It("finds a seed before exhausting the rest of the subnet", func() {
		checker := &fakeChecker{match: "192.168.1.42"}
		result, err := discover.Discover(context.Background(), checker, discover.Options{
			Network: cidr("192.168.1.0/24"),
			Seeds:   []string{"192.168.1.42"},
			Workers: 8,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IP).To(Equal("192.168.1.42"))
		Expect(checker.callCount).To(BeNumerically("<=", 3))
	})

	It("drops seeds that fall outside the target network", func() {
		checker := &fakeChecker{match: "192.168.1.7"}
		result, err := discover.Discover(context.Background(), checker, discover.Options{
			Network: cidr("192.168.1.0/24"),
			Seeds:   []string{"10.0.0.5"},
			Workers: 8,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IP).To(Equal("192.168.1.7"))
	})

	It("returns an error when nothing answers within the context deadline", func() {
		checker := &fakeChecker{match: "not-present", delay: 20 * time.Millisecond}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err := discover.Discover(ctx, checker, discover.Options{
			Network: cidr("192.168.50.0/28"),
			Workers: 2,
		})
		Expect(err).To(HaveOccurred())
	})
})
