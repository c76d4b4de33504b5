package fsm_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"kiosk-controller/pkg/fsm"
)

func TestFSM(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "FSM Suite")
}

var _ = Describe("Machine", func() {
	var (
		m    *fsm.Machine
		base time.Time
	)

	BeforeEach(func() {
		m = fsm.New(3, 2, 10*time.Second)
		base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	})

	It("starts Down", func() {
		Expect(m.Mode()).To(Equal(fsm.Down))
	})

	It("stays Down until OksToUp consecutive successes", func() {
		t1 := m.Observe(true, base)
		Expect(t1.Changed).To(BeFalse())
		Expect(m.Mode()).To(Equal(fsm.Down))

		t2 := m.Observe(true, base.Add(time.Second))
		Expect(t2.Changed).To(BeTrue())
		Expect(t2.To).To(Equal(fsm.Up))
	})

	It("resets the success streak on a single failure", func() {
		m.Observe(true, base)
		m.Observe(false, base.Add(time.Second))
		t3 := m.Observe(true, base.Add(2*time.Second))
		Expect(t3.Changed).To(BeFalse())
		Expect(m.Mode()).To(Equal(fsm.Down))
	})

	It("transitions Up to Down after FailsToDown consecutive failures", func() {
		m.Observe(true, base)
		m.Observe(true, base.Add(time.Second))
		Expect(m.Mode()).To(Equal(fsm.Up))

		m.Observe(false, base.Add(2*time.Second))
		m.Observe(false, base.Add(3*time.Second))
		t4 := m.Observe(false, base.Add(4*time.Second))
		Expect(t4.Changed).To(BeTrue())
		Expect(t4.To).To(Equal(fsm.Down))
		Expect(m.DownSince()).To(Equal(base.Add(4 * time.Second)))
	})

	It("does not recommend discovery before the recovery window elapses", func() {
		m.Observe(false, base)
		m.Observe(false, base.Add(time.Second))
		m.Observe(false, base.Add(2*time.Second))
		Expect(m.ShouldDiscover(base.Add(3 * time.Second))).To(BeFalse())
		Expect(m.ShouldDiscover(base.Add(13 * time.Second))).To(BeTrue())
	})

	It("never recommends discovery while Up", func() {
		m.Observe(true, base)
		m.Observe(true, base.Add(time.Second))
		Expect(m.ShouldDiscover(base.Add(time.Hour))).To(BeFalse())
	})
})
