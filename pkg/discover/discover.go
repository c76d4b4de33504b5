// Package discover runs a bounded, budget-limited sweep of a local subnet
// looking for the first host that answers the health probe, trying cached
// and ARP-table candidates before the rest of the address space.
package discover

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// MinPrefixLen is the smallest (least specific) network this package will
// scan; anything larger is refused rather than enumerated, since a sweep
// over a /8 would never finish inside any sane discovery budget.
const MinPrefixLen = 20

// Checker is satisfied by pkg/probe.Prober; kept as an interface here so
// tests can substitute a fake without touching the real network.
type Checker interface {
	Check(ctx context.Context, ip string) bool
}

// Result is what Discover returns on success.
type Result struct {
	IP       string
	Attempts int
	Elapsed  time.Duration
}

// Options configures one discovery run.
type Options struct {
	Network *net.IPNet
	Seeds   []string // cache + ARP candidates, tried first, in order
	Workers int
	Limiter *rate.Limiter
}

// Discover tries Seeds (filtered to addresses inside Network, in order) and
// then the rest of Network in random order, stopping at the first host that
// answers the health probe or when ctx is cancelled (the caller is expected
// to derive ctx from a budget deadline via context.WithTimeout).
func Discover(ctx context.Context, checker Checker, opts Options) (*Result, error) {
	ones, bits := opts.Network.Mask.Size()
	if bits == 32 && ones < MinPrefixLen {
		return nil, fmt.Errorf("refusing to scan %s: network wider than /%d", opts.Network, MinPrefixLen)
	}

	order := buildScanOrder(opts.Network, opts.Seeds)
	if len(order) == 0 {
		return nil, fmt.Errorf("no candidates to scan in %s", opts.Network)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()
	candidates := make(chan string)
	found := make(chan string, 1)
	var attempts int64
	var mu sync.Mutex

	// winCtx lets a winning worker abandon every other pending probe
	// immediately, rather than waiting out the rest of the discovery budget.
	winCtx, winCancel := context.WithCancel(ctx)
	defer winCancel()

	g, gctx := errgroup.WithContext(winCtx)

	g.Go(func() error {
		defer close(candidates)
		for _, ip := range order {
			if opts.Limiter != nil {
				if err := opts.Limiter.Wait(gctx); err != nil {
					return nil
				}
			}
			select {
			case candidates <- ip:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for ip := range candidates {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				mu.Lock()
				attempts++
				mu.Unlock()
				if checker.Check(gctx, ip) {
					select {
					case found <- ip:
					default:
					}
					winCancel()
					return nil
				}
			}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(found)
	}()

	winner, ok := <-found
	mu.Lock()
	n := attempts
	mu.Unlock()

	if !ok || winner == "" {
		return nil, fmt.Errorf("no responsive host found in %s within budget", opts.Network)
	}
	return &Result{IP: winner, Attempts: int(n), Elapsed: time.Since(start)}, nil
}

// buildScanOrder places deduped, network-local seeds first, followed by the
// rest of the subnet's host addresses in random order. Open Question #2:
// seeds outside Network are dropped rather than trusted blindly.
func buildScanOrder(network *net.IPNet, seeds []string) []string {
	seen := make(map[string]bool)
	var order []string

	for _, s := range seeds {
		ip := net.ParseIP(s)
		if ip == nil || !network.Contains(ip) {
			continue
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		order = append(order, s)
	}

	rest := hostsIn(network)
	rand.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	for _, ip := range rest {
		if seen[ip] {
			continue
		}
		seen[ip] = true
		order = append(order, ip)
	}
	return order
}

func hostsIn(network *net.IPNet) []string {
	var ips []string
	base := network.IP.To4()
	if base == nil {
		return ips
	}
	ones, bits := network.Mask.Size()
	count := 1 << uint(bits-ones)
	start := ipToUint32(base)
	for i := 1; i < count-1; i++ {
		ips = append(ips, uint32ToIP(start+uint32(i)).String())
	}
	return ips
}

func ipToUint32(ip net.IP) uint32 {
	ip = ip.To4()
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func uint32ToIP(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
