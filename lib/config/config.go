// Package config holds the process-wide configuration root. Settings are
// hot-reassignable: Update swaps the whole root atomically and runs the
// registered reload hooks (the client pool registers one so that network
// changes rebuild its clients). Mutating configuration concurrently with
// live requests is undefined behavior; callers are expected to configure
// at startup.
package config

import (
	"sync"
	"sync/atomic"
	"time"
)

type Protocol string

const (
	ProtocolHTTP1 Protocol = "http1"
	ProtocolHTTP2 Protocol = "http2"
)

type NetworkConfig struct {
	Protocol Protocol      `json:"protocol"`
	Proxy    string        `json:"proxy"`
	Timeout  time.Duration `json:"timeout"`
}

type EndpointsConfig struct {
	Jianshu string `json:"jianshu"`
	Market  string `json:"market"`
}

type ResourceCheckConfig struct {
	// AutoCheck runs the pre-flight existence check before the first field
	// access of any resource object constructed from caller input.
	AutoCheck bool `json:"auto_check"`
	// ForceCheckSafeData also checks objects produced from already
	// validated upstream responses.
	ForceCheckSafeData bool `json:"force_check_safe_data"`
}

type DataValidationConfig struct {
	Enabled bool `json:"enabled"`
}

type ResourceCacheConfig struct {
	// Enabled controls per-object memoization of info records and
	// scalar accessors.
	Enabled bool `json:"enabled"`
}

type Config struct {
	Network        NetworkConfig        `json:"network"`
	Endpoints      EndpointsConfig      `json:"endpoints"`
	ResourceCheck  ResourceCheckConfig  `json:"resource_check"`
	ResourceCache  ResourceCacheConfig  `json:"resource_cache"`
	DataValidation DataValidationConfig `json:"data_validation"`
}

func Default() Config {
	return Config{
		Network: NetworkConfig{
			Protocol: ProtocolHTTP2,
			Timeout:  5 * time.Second,
		},
		Endpoints: EndpointsConfig{
			Jianshu: "https://www.jianshu.com",
			Market:  "https://20ft.cn",
		},
		ResourceCheck: ResourceCheckConfig{
			AutoCheck: true,
		},
		ResourceCache: ResourceCacheConfig{
			Enabled: true,
		},
		DataValidation: DataValidationConfig{
			Enabled: true,
		},
	}
}

var (
	current atomic.Pointer[Config]

	hookMu sync.Mutex
	hooks  []func(old, new Config)
)

func init() {
	def := Default()
	current.Store(&def)
}

// Get returns a copy of the current configuration root.
func Get() Config {
	return *current.Load()
}

// Update applies fn to a copy of the current root, stores it and runs the
// reload hooks synchronously.
func Update(fn func(*Config)) {
	hookMu.Lock()
	defer hookMu.Unlock()

	old := *current.Load()
	next := old
	fn(&next)
	current.Store(&next)
	for _, h := range hooks {
		h(old, next)
	}
}

// OnUpdate registers a hook invoked after every Update with the previous
// and the new root.
func OnUpdate(fn func(old, new Config)) {
	hookMu.Lock()
	defer hookMu.Unlock()
	hooks = append(hooks, fn)
}
