package config

import "time"

// RateLimitConfig configures the redis token bucket placed in front of
// every route.  It is off unless RATE_LIMIT_ENABLED is set.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int // bucket size
	RefillTokens   int // tokens added per RefillInterval
	RefillInterval time.Duration
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string        // ip, route or ip_route
	Prefix         string        // redis key prefix
	Debug          bool          // log decisions and expose X-RateLimit-Key
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables on their own.  A
// malformed number, duration or flag is an error, as it is for Load.
//
// RATE_LIMIT_BURST, when positive, overrides RATE_LIMIT_CAPACITY, and
// RATE_LIMIT_REFILL_EVERY, when positive, means one token per that period.
// The TTL is raised to at least five refill intervals so a bucket is never
// evicted while it is still refilling.
func LoadRateLimitConfig() (RateLimitConfig, error) {
	p := &parser{}
	rl := p.rateLimit()
	return rl, p.err
}

func (p *parser) rateLimit() RateLimitConfig {
	rl := RateLimitConfig{
		Enabled:        p.boolVal("RATE_LIMIT_ENABLED", false),
		Capacity:       p.intVal("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   p.intVal("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: p.durVal("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            p.durVal("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          p.boolVal("RATE_LIMIT_DEBUG", false),
	}
	if burst := p.intVal("RATE_LIMIT_BURST", 0); burst > 0 {
		rl.Capacity = burst
	}
	if every := p.durVal("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		rl.RefillTokens, rl.RefillInterval = 1, every
	}

	rl.Capacity = max(rl.Capacity, 1)
	rl.RefillTokens = max(rl.RefillTokens, 1)
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	rl.TTL = max(rl.TTL, 5*rl.RefillInterval)
	return rl
}
