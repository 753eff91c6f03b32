// Package clientpool owns the four pre-configured HTTP clients the
// library multiplexes the remote sites over: the host site's JSON api,
// its desktop and mobile HTML templates, and the market site's api. All
// four share transport settings from the configuration root; a network or
// endpoint change swaps the whole pool atomically. In-flight requests
// keep the client they started with.
package clientpool

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"sync/atomic"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/http2"

	"jianshukit/lib/config"
	"jianshukit/lib/telemetry"
)

const (
	apiUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0"
	mobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
	marketUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

type Pool struct {
	// API talks to the host site's JSON endpoints.
	API *resty.Client
	// DesktopHTML fetches pages only rendered on the desktop template.
	DesktopHTML *resty.Client
	// MobileHTML fetches pages only rendered on the mobile template
	// (wallet totals, anniversary day, compact assets).
	MobileHTML *resty.Client
	// Market talks to the market site's getList api.
	Market *resty.Client
}

var current atomic.Pointer[Pool]

func init() {
	current.Store(build(config.Get()))
	config.OnUpdate(func(old, new config.Config) {
		if old.Network != new.Network || old.Endpoints != new.Endpoints {
			current.Store(build(new))
		}
	})
}

// Get returns the current pool. Long-running loops may cache the returned
// pointer; they will simply finish on the pre-rebuild clients.
func Get() *Pool {
	return current.Load()
}

func newTransport(cfg config.Config) http.RoundTripper {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{},
	}
	if cfg.Network.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Network.Proxy)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	if cfg.Network.Protocol == config.ProtocolHTTP2 {
		// ignore the error: it only fires for already-configured
		// transports, and this one is freshly built
		_ = http2.ConfigureTransport(transport)
	}
	return transport
}

func newClient(cfg config.Config, baseURL, userAgent, tracerName string, browserLike bool) *resty.Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(cfg.Network.Timeout)
	client.SetHeader("User-Agent", userAgent)

	transport := newTransport(cfg)
	if browserLike {
		transport = cloudflarebp.AddCloudFlareByPass(transport)
	}
	client.SetTransport(transport)

	telemetry.InstrumentResty(client, tracerName)
	return client
}

func build(cfg config.Config) *Pool {
	api := newClient(cfg, cfg.Endpoints.Jianshu, apiUserAgent, "jianshukit/clientpool/api", false)
	api.SetHeader("Accept", "application/json")
	api.SetHeader("X-INFINITESCROLL", "true")
	api.SetHeader("X-Requested-With", "XMLHttpRequest")

	desktop := newClient(cfg, cfg.Endpoints.Jianshu, desktopUserAgent, "jianshukit/clientpool/desktop", true)
	mobile := newClient(cfg, cfg.Endpoints.Jianshu, mobileUserAgent, "jianshukit/clientpool/mobile", true)

	market := newClient(cfg, cfg.Endpoints.Market, marketUserAgent, "jianshukit/clientpool/market", false)
	market.SetHeader("Content-Type", "application/json")
	market.SetHeader("Version", "v2.0")

	return &Pool{
		API:         api,
		DesktopHTML: desktop,
		MobileHTML:  mobile,
		Market:      market,
	}
}
