// Package testutil bootstraps package tests: telemetry setup plus a fake
// remote site the endpoint base URLs are pointed at for the duration of a
// test.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"jianshukit/lib/config"
	"jianshukit/lib/telemetry"
)

func Setup(t testing.TB, name string) func() {
	return telemetry.SetupForTesting("test:" + name)
}

// FakeSite serves handler as both the host site and the market site and
// rewires the endpoint configuration to it. The returned cleanup restores
// the previous configuration; the client pool rebuilds on both flips.
func FakeSite(t testing.TB, handler http.Handler) (*httptest.Server, func()) {
	server := httptest.NewServer(handler)

	previous := config.Get()
	config.Update(func(cfg *config.Config) {
		cfg.Endpoints.Jianshu = server.URL
		cfg.Endpoints.Market = server.URL
		// the fake serves plain http/1.1
		cfg.Network.Protocol = config.ProtocolHTTP1
	})

	return server, func() {
		config.Update(func(cfg *config.Config) {
			cfg.Endpoints = previous.Endpoints
			cfg.Network.Protocol = previous.Network.Protocol
		})
		server.Close()
	}
}
