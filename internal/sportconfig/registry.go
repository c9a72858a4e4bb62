package sportconfig

import (
	"fmt"
	"sync"

	"github.com/xavierbriggs/decision-core/pkg/decisionerr"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// Registry is the sport config registry: a concurrency-safe
// lookup by sport key, seeded from the LOCKED defaults and optionally
// overridden from YAML at startup.
type Registry struct {
	mu      sync.RWMutex
	configs map[models.Sport]Config
}

// NewRegistry seeds a Registry with the built-in LOCKED config for every
// supported sport.
func NewRegistry() *Registry {
	r := &Registry{configs: make(map[models.Sport]Config, len(defaults))}
	for sport, cfg := range defaults {
		r.configs[sport] = cfg
	}
	return r
}

// ConfigFor returns the frozen SportConfig for a sport key.
func (r *Registry) ConfigFor(sport models.Sport) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[sport]
	if !ok {
		return Config{}, decisionerr.New(decisionerr.KindContract, decisionerr.CodeMarketContractMismatch,
			fmt.Sprintf("unknown sport %q", sport))
	}
	return cfg, nil
}

// ValidateMarketContract fails with MARKET_CONTRACT_MISMATCH when the
// (sport, market_type, settlement) tuple is unsupported.
func (r *Registry) ValidateMarketContract(sport models.Sport, marketType models.MarketType, settlement models.MarketSettlement) error {
	cfg, err := r.ConfigFor(sport)
	if err != nil {
		return err
	}
	if !cfg.IsMarketSupported(marketType, settlement) {
		return decisionerr.New(decisionerr.KindContract, decisionerr.CodeMarketContractMismatch,
			fmt.Sprintf("%s does not support %s/%s", sport, marketType, settlement))
	}
	return nil
}

// KeyNumbersFor returns the key-number table used by the classifier's
// key-number protection. Sports without key numbers return nil.
func (r *Registry) KeyNumbersFor(sport models.Sport) ([]float64, float64, error) {
	cfg, err := r.ConfigFor(sport)
	if err != nil {
		return nil, 0, err
	}
	return cfg.KeyNumbers, cfg.KeyNumberBuffer, nil
}

// Override replaces the config for one sport, used by the YAML override
// loader at startup. It does not allow registering an unknown sport.
func (r *Registry) Override(sport models.Sport, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.configs[sport]; !ok {
		return fmt.Errorf("cannot override unknown sport %q", sport)
	}
	cfg.Sport = sport
	r.configs[sport] = cfg
	return nil
}

// All returns every registered sport's config, for diagnostics/meta endpoints.
func (r *Registry) All() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Config, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg)
	}
	return out
}
