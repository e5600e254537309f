// Package geolocation resolves hostnames to coordinates through an
// ip-api.com compatible JSON endpoint.
package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
)

const DefaultURL = "http://ip-api.com/json"

var log = logging.New("geolocation")

// ErrLookupFailed is returned when the service answers but cannot place
// the host.
var ErrLookupFailed = errors.New("geolocation lookup failed")

// Location is the subset of the ip-api.com answer a Location record needs.
type Location struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"regionName"`
}

type response struct {
	Location
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Locator looks up the location of a host.
type Locator interface {
	Locate(ctx context.Context, host string) (*Location, error)
}

// Client is a Locator backed by HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL, DefaultURL if empty. Requests are traced.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Locate fetches {baseURL}/{host}.
func (c *Client) Locate(ctx context.Context, host string) (*Location, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", ErrLookupFailed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(host), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrLookupFailed, host, resp.Status)
	}
	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geolocation of %s: %w", host, err)
	}
	if body.Status != "" && body.Status != "success" {
		return nil, fmt.Errorf("%w: %s: %s", ErrLookupFailed, host, body.Message)
	}
	log.WithField("host", host).Debugf("located at %v,%v", body.Latitude, body.Longitude)
	return &body.Location, nil
}

// HostOf returns the host part of a link, which may be a bare hostname or a
// full URL.
func HostOf(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if !strings.Contains(link, "://") {
		link = "http://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return host
}
