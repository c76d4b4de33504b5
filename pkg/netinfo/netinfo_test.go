package netinfo_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"kiosk-controller/pkg/netinfo"
)

func TestNetinfo(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Netinfo Suite")
}

func fakeRunner(responses map[string][]byte) netinfo.Runner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		key := name
		for _, a := range args {
			key += " " + a
		}
		if out, ok := responses[key]; ok {
			return out, nil
		}
		return nil, errNotStubbed(key)
	}
}

type errNotStubbed string

func (e errNotStubbed) Error() string { return "not stubbed: " + string(e) }

var _ = Describe("Introspector", func() {
	var n *netinfo.Introspector

	Describe("DefaultRouteInterface", func() {
		It("parses the ip route get JSON output", func() {
			n = &netinfo.Introspector{Run: fakeRunner(map[string][]byte{
				"ip -j route get 1.1.1.1": []byte(`[{"dev":"eth0","prefsrc":"192.168.1.23"}]`),
			})}

			route, err := n.DefaultRouteInterface(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(route.Dev).To(Equal("eth0"))
			Expect(route.Src).To(Equal("192.168.1.23"))
		})

		It("errors when the route list is empty", func() {
			n = &netinfo.Introspector{Run: fakeRunner(map[string][]byte{
				"ip -j route get 1.1.1.1": []byte(`[]`),
			})}
			_, err := n.DefaultRouteInterface(context.Background())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("InterfaceCIDR", func() {
		It("extracts the first IPv4 address and prefix", func() {
			n = &netinfo.Introspector{Run: fakeRunner(map[string][]byte{
				"ip -j addr show dev eth0": []byte(`[{"ifname":"eth0","addr_info":[
					{"family":"inet6","local":"fe80::1","prefixlen":64},
					{"family":"inet","local":"192.168.1.23","prefixlen":24}
				]}]`),
			})}

			iface, err := n.InterfaceCIDR(context.Background(), "eth0")
			Expect(err).NotTo(HaveOccurred())
			Expect(iface.Network.String()).To(Equal("192.168.1.0/24"))
		})
	})

	Describe("NeighborCandidates", func() {
		It("filters out FAILED entries and non-IPv4 addresses", func() {
			n = &netinfo.Introspector{Run: fakeRunner(map[string][]byte{
				"ip -j neigh show": []byte(`[
					{"dst":"192.168.1.5","dev":"eth0","state":["REACHABLE"]},
					{"dst":"192.168.1.6","dev":"eth0","state":["FAILED"]},
					{"dst":"fe80::2","dev":"eth0","state":["STALE"]}
				]`),
			})}

			candidates, err := n.NeighborCandidates(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(ConsistOf("192.168.1.5"))
		})
	})
})
