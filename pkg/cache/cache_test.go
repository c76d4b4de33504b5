package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"kiosk-controller/pkg/cache"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cache Suite")
}

var _ = Describe("Store", func() {
	var (
		dir  string
		path string
		s    *cache.Store
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "kiosk-cache-test-*")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(dir, "target_ips.json")
		s = cache.New(path)
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("returns an empty slice when the file does not exist", func() {
		entries, err := s.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("persists a recorded success and reloads it", func() {
		now := time.Now()
		Expect(s.RecordSuccess("192.168.1.50", now)).To(Succeed())

		entries, err := s.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].IP).To(Equal("192.168.1.50"))
	})

	It("moves a re-confirmed IP to the front without duplicating it", func() {
		t0 := time.Now()
		Expect(s.RecordSuccess("10.0.0.1", t0)).To(Succeed())
		Expect(s.RecordSuccess("10.0.0.2", t0.Add(time.Second))).To(Succeed())
		Expect(s.RecordSuccess("10.0.0.1", t0.Add(2*time.Second))).To(Succeed())

		entries, err := s.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].IP).To(Equal("10.0.0.1"))
	})

	It("truncates to MaxEntries", func() {
		base := time.Now()
		ips := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5", "10.0.0.6"}
		for i, ip := range ips {
			Expect(s.RecordSuccess(ip, base.Add(time.Duration(i)*time.Second))).To(Succeed())
		}

		entries, err := s.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(cache.MaxEntries))
		Expect(entries[0].IP).To(Equal("10.0.0.6"))
	})

	It("writes atomically, leaving no temp file behind", func() {
		Expect(s.RecordSuccess("172.16.0.1", time.Now())).To(Succeed())

		matches, err := filepath.Glob(filepath.Join(dir, ".cache-*.tmp"))
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(BeEmpty())
	})

	It("clear removes the file", func() {
		Expect(s.RecordSuccess("10.0.0.1", time.Now())).To(Succeed())
		Expect(s.Clear()).To(Succeed())

		entries, err := s.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("clear on an already-missing file is not an error", func() {
		Expect(s.Clear()).To(Succeed())
	})
})
