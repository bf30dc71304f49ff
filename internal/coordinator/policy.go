package coordinator

import (
	"database/sql"

	"github.com/eugenesvk/tabsave/internal/config"
	"github.com/eugenesvk/tabsave/internal/db"
	"github.com/eugenesvk/tabsave/internal/tab"
)

// Policy decides whether a tab is currently auto-save eligible. It reads the
// global flags from config, the per-tab opt-in flag from storage, and the
// URL rule through the resolver. It has no side effects.
type Policy struct {
	db       *sql.DB
	cfg      *config.Config
	resolver *RuleResolver
}

// NewPolicy creates an eligibility policy.
func NewPolicy(database *sql.DB, cfg *config.Config, resolver *RuleResolver) *Policy {
	return &Policy{db: database, cfg: cfg, resolver: resolver}
}

// Eligible reports whether the tab is auto-save eligible. A nil tab is never
// eligible. A rule with the disabled profile forces ineligibility regardless
// of any flag; a missing rule is no override.
func (p *Policy) Eligible(t *tab.Tab) (bool, error) {
	if t == nil {
		return false, nil
	}

	rule, err := p.resolver.ResolveRule(t.URL)
	if err != nil {
		return false, err
	}
	if rule != nil && rule.Disabled() {
		return false, nil
	}

	if p.cfg.AutoSaveAll {
		return true, nil
	}
	if p.cfg.AutoSaveUnpinned && !t.Pinned {
		return true, nil
	}

	return db.GetTabFlag(p.db, t.ID)
}
