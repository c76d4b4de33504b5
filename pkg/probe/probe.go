// Package probe implements the single-shot HTTP health check used to decide
// whether a candidate AIDA64 RemoteSensor panel is reachable.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"
)

const userAgent = "kiosk-controller/2.1"

// Prober issues a single GET against a host's health path and reports
// success iff the response status is exactly 200.
type Prober struct {
	Port           int
	Path           string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// New builds a Prober with the given connect/read timeouts.
func New(port int, path string, connectTimeout, readTimeout time.Duration) *Prober {
	return &Prober{Port: port, Path: path, ConnectTimeout: connectTimeout, ReadTimeout: readTimeout}
}

func (p *Prober) client() *http.Client {
	dialer := &net.Dialer{Timeout: p.ConnectTimeout}
	return &http.Client{
		Timeout: p.ConnectTimeout + p.ReadTimeout,
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
			ResponseHeaderTimeout: p.ReadTimeout,
			DisableKeepAlives:     true,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Check returns true iff ip:Port answers Path with HTTP 200 within the
// configured timeouts. A non-200 status, a dial failure or a timeout are all
// treated as DOWN, matching the original controller's http_healthcheck.
func (p *Prober) Check(ctx context.Context, ip string) bool {
	ok, _ := p.CheckVerbose(ctx, ip)
	return ok
}

// CheckVerbose is like Check but also returns the reason for a failure,
// useful for structured logging at the call site.
func (p *Prober) CheckVerbose(ctx context.Context, ip string) (bool, error) {
	url := fmt.Sprintf("http://%s:%d%s", ip, p.Port, p.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Connection", "close")
	req.Host = fmt.Sprintf("%s:%d", ip, p.Port)

	resp, err := p.client().Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return true, nil
}
