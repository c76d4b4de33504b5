// Package netinfo introspects the host's default route and local ARP/neighbor
// table via the `ip` command, the same way the original controller does,
// rather than the teacher's per-OS regex parsing of `route`/`arp -a` text.
package netinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

// Route describes the default route as reported by `ip -j route get`.
type Route struct {
	Dev string `json:"dev"`
	Src string `json:"prefsrc"`
}

// Interface describes the CIDR reported by `ip -j addr show dev <dev>`.
type Interface struct {
	Network *net.IPNet
	IP      net.IP
}

// Neighbor is one entry from `ip -j neigh show`.
type Neighbor struct {
	IP     string   `json:"dst"`
	Dev    string   `json:"dev"`
	Lladdr string   `json:"lladdr"`
	State  []string `json:"state"`
}

// Runner abstracts command execution so tests can stub `ip` output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// Introspector wraps a Runner for testability. The zero value has no Runner
// and cannot be used; New returns one that runs the real `ip` binary.
type Introspector struct {
	Run Runner
}

// New returns an Introspector that shells out to the real `ip` binary.
func New() *Introspector {
	return &Introspector{Run: defaultRunner}
}

// DefaultRouteInterface returns the device and preferred source address of
// the route toward the well-known anycast probe target, equivalent to the
// original's `ip -j route get 1.1.1.1`.
func (n *Introspector) DefaultRouteInterface(ctx context.Context) (*Route, error) {
	out, err := n.Run(ctx, "ip", "-j", "route", "get", "1.1.1.1")
	if err != nil {
		return nil, fmt.Errorf("ip route get: %w", err)
	}
	var routes []Route
	if err := json.Unmarshal(out, &routes); err != nil {
		return nil, fmt.Errorf("parsing ip route get output: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("no default route found")
	}
	return &routes[0], nil
}

type addrInfo struct {
	Local     string `json:"local"`
	PrefixLen int    `json:"prefixlen"`
}

type addrShow struct {
	Ifname   string     `json:"ifname"`
	AddrInfo []addrInfo `json:"addr_info"`
}

// InterfaceCIDR resolves the IPv4 address and network mask bound to dev,
// equivalent to the original's `ip -j addr show dev <dev>`.
func (n *Introspector) InterfaceCIDR(ctx context.Context, dev string) (*Interface, error) {
	out, err := n.Run(ctx, "ip", "-j", "addr", "show", "dev", dev)
	if err != nil {
		return nil, fmt.Errorf("ip addr show: %w", err)
	}
	var shows []addrShow
	if err := json.Unmarshal(out, &shows); err != nil {
		return nil, fmt.Errorf("parsing ip addr show output: %w", err)
	}
	for _, s := range shows {
		for _, a := range s.AddrInfo {
			ip := net.ParseIP(a.Local)
			if ip == nil || ip.To4() == nil {
				continue
			}
			_, ipnet, err := net.ParseCIDR(fmt.Sprintf("%s/%d", a.Local, a.PrefixLen))
			if err != nil {
				continue
			}
			return &Interface{Network: ipnet, IP: ip}, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 address found on %s", dev)
}

// LocalNetwork combines DefaultRouteInterface and InterfaceCIDR into the
// single CIDR the controller scans.
func (n *Introspector) LocalNetwork(ctx context.Context) (*Interface, error) {
	route, err := n.DefaultRouteInterface(ctx)
	if err != nil {
		return nil, err
	}
	return n.InterfaceCIDR(ctx, route.Dev)
}

// Neighbors lists the kernel's ARP/neighbor table, equivalent to the
// original's `ip -j neigh show`. Entries without a usable IPv4 address or
// whose state indicates staleness beyond FAILED are still returned; callers
// decide which states are trustworthy seeds.
func (n *Introspector) Neighbors(ctx context.Context) ([]Neighbor, error) {
	out, err := n.Run(ctx, "ip", "-j", "neigh", "show")
	if err != nil {
		return nil, fmt.Errorf("ip neigh show: %w", err)
	}
	var neighbors []Neighbor
	if err := json.Unmarshal(out, &neighbors); err != nil {
		return nil, fmt.Errorf("parsing ip neigh show output: %w", err)
	}
	return neighbors, nil
}

// NeighborCandidates filters Neighbors down to IPv4 addresses not in the
// FAILED state, mirroring the original's ip_neigh_candidates.
func (n *Introspector) NeighborCandidates(ctx context.Context) ([]string, error) {
	neighbors, err := n.Neighbors(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, nb := range neighbors {
		ip := net.ParseIP(nb.IP)
		if ip == nil || ip.To4() == nil {
			continue
		}
		if containsState(nb.State, "FAILED") {
			continue
		}
		out = append(out, nb.IP)
	}
	return out, nil
}

func containsState(states []string, target string) bool {
	for _, s := range states {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}
