package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/gatebot/core/config"
	"github.com/m3rciful/gatebot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain: panic recovery
// first, then the blocked-user guard, then optional inbound rate limiting,
// then per-update logging.
func DefaultMiddlewares(cfg *coreconfig.Config, isBlocked func(int64) bool) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if isBlocked != nil {
		mws = append(mws, Middleware{
			Name: "block_guard",
			Use:  middleware.BlockGuard(isBlocked),
		})
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
					Interval: interval,
					Exclude:  ex,
				}),
			})
		}
	}

	mws = append(mws, Middleware{Name: "logger", Use: middleware.LoggerMiddleware})

	return mws
}
