package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sifan077/LinkPulse/config"
	"github.com/sifan077/LinkPulse/internal/app/model"
)

var ErrLookupFailed = errors.New("geoip: lookup failed")

// HTTPLocator queries an ip-api.com compatible JSON endpoint.
type HTTPLocator struct {
	client   *http.Client
	endpoint string
}

// NewHTTPLocator builds a locator from config. The endpoint is a printf
// template receiving the escaped IP.
func NewHTTPLocator(cfg config.GeoConfig) *HTTPLocator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 1500 * time.Millisecond
	}
	return &HTTPLocator{
		client:   &http.Client{Timeout: timeout},
		endpoint: cfg.Endpoint,
	}
}

type lookupResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

// Locate returns nil without calling out for addresses that cannot be placed,
// such as loopback and private ranges.
func (l *HTTPLocator) Locate(ctx context.Context, ip string) (*model.GeoInfo, error) {
	if !routable(ip) {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(l.endpoint, url.PathEscape(ip)), nil)
	if err != nil {
		return nil, fmt.Errorf("geoip: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrLookupFailed, err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, body.Message)
	}

	return &model.GeoInfo{
		Country: body.Country,
		Region:  body.RegionName,
		City:    body.City,
	}, nil
}

func routable(raw string) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsMulticast())
}
