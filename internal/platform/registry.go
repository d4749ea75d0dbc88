package platform

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Config carries everything an adapter needs to come up. Authentication
// already happened elsewhere: the credential store hands over a working
// token and HTTP client, never raw credentials.
type Config struct {
	// Server is the backend base URL (instance URL or PDS/AppView host).
	Server string

	// AccessToken is the already-negotiated bearer token.
	AccessToken string

	// Identifier is the platform-specific self identity hint (a DID for
	// AT-Proto backends); optional where the backend can self-resolve.
	Identifier string

	// ConfDir is the per-account filesystem root used only for the
	// user-cache snapshot path.
	ConfDir string

	// HTTPClient overrides the default transport when set.
	HTTPClient *http.Client

	Reporter Reporter
	Logger   zerolog.Logger
}

// Factory builds an adapter for one backend. Construction may perform
// network round-trips to resolve the authenticated user.
type Factory func(cfg Config) (Account, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a platform implementation available by name. It is
// meant to be called from adapter package init functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New builds an account for a registered platform.
func New(name string, cfg Config) (Account, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, name)
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NopReporter{}
	}
	return factory(cfg)
}

// Platforms lists the registered platform names, sorted.
func Platforms() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
