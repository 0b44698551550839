// Package registry probes an optional container image registry so a
// misconfigured endpoint is caught at init time instead of at first push.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/docker/go-connections/tlsconfig"

	"github.com/jecluis/ceph-amazing-builder/pkg/config"
)

// probeTimeout bounds the liveness check.
const probeTimeout = 10 * time.Second

// Probe checks that the registry answers the v2 API endpoint. An insecure
// registry is probed over plain HTTP; a secure one over TLS with system
// roots.
func Probe(ctx context.Context, reg *config.Registry) error {
	if reg == nil || reg.URL == "" {
		return fmt.Errorf("no registry configured")
	}

	scheme := "http"
	client := &http.Client{Timeout: probeTimeout}
	if reg.Secure {
		scheme = "https"
		tlsCfg, err := tlsconfig.Client(tlsconfig.Options{})
		if err != nil {
			return fmt.Errorf("building TLS configuration: %w", err)
		}
		client.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}

	url := fmt.Sprintf("%s://%s/v2/", scheme, reg.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building registry request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("registry %s not reachable: %w", reg.URL, err)
	}
	defer resp.Body.Close()

	// 401 means alive but wants auth; that is still a live registry.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("registry %s answered %s", reg.URL, resp.Status)
	}
	return nil
}
