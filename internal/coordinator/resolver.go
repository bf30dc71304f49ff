package coordinator

import (
	"context"
	"database/sql"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/eugenesvk/tabsave/internal/config"
	"github.com/eugenesvk/tabsave/internal/db"
	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/rules"
)

const (
	ruleCacheSize = 256
	ruleCacheTTL  = time.Minute
)

// cachedRule is a rule-resolution result. A nil rule (no match) is cached too.
type cachedRule struct {
	rule *rules.Rule
}

// RuleResolver resolves URL rules and profile options from storage, with a
// bounded TTL cache in front so per-event lookups stay cheap. Rule edits made
// by another process become visible once the TTL lapses.
type RuleResolver struct {
	db    *sql.DB
	cfg   *config.Config
	cache *expirable.LRU[string, cachedRule]
}

// NewRuleResolver creates a resolver over the given database and config.
func NewRuleResolver(database *sql.DB, cfg *config.Config) *RuleResolver {
	return &RuleResolver{
		db:    database,
		cfg:   cfg,
		cache: expirable.NewLRU[string, cachedRule](ruleCacheSize, nil, ruleCacheTTL),
	}
}

// ResolveRule returns the most specific rule for the URL, or nil when no
// rule applies.
func (r *RuleResolver) ResolveRule(url string) (*rules.Rule, error) {
	if entry, ok := r.cache.Get(url); ok {
		return entry.rule, nil
	}

	all, err := db.ListRules(r.db)
	if err != nil {
		return nil, err
	}
	rule := rules.BestMatch(all, url)
	r.cache.Add(url, cachedRule{rule: rule})
	return rule, nil
}

// Invalidate drops all cached resolutions. Call after rule edits in-process.
func (r *RuleResolver) Invalidate() {
	r.cache.Purge()
}

// ResolveOptions resolves the save options for a URL. A nil result means
// auto-save is inactive for that URL context. forceConsider bypasses the
// rule cache so a flush sees current rule state.
func (r *RuleResolver) ResolveOptions(ctx context.Context, url string, forceConsider bool) (*rules.Options, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if forceConsider {
		r.cache.Remove(url)
	}

	rule, err := r.ResolveRule(url)
	if err != nil {
		return nil, err
	}

	if rule == nil {
		return rules.DefaultOptions(r.cfg), nil
	}
	if rule.Disabled() {
		return nil, nil
	}

	opts, err := db.GetProfile(r.db, rule.Profile)
	if errors.Is(err, errors.ErrNotFound) {
		// Rule references a profile that no longer exists; treat as default.
		return rules.DefaultOptions(r.cfg), nil
	}
	if err != nil {
		return nil, err
	}
	opts.Normalize(r.cfg)
	return opts, nil
}
