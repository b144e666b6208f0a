package ratelimit

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/Proton-105/queue-bot/pkg/config"
)

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	perUser   *Rule
	actions   map[string]Rule
	whitelist []int64
}

// NewRules parses the configured windows. Rules without a window or limit are ignored.
func NewRules(cfg config.RateLimitConfig) (*Rules, error) {
	r := &Rules{actions: make(map[string]Rule), whitelist: cfg.Whitelist}

	perUser, ok, err := parseRule(cfg.PerUser)
	if err != nil {
		return nil, fmt.Errorf("per_user: %w", err)
	}
	if ok {
		r.perUser = &perUser
	}

	for action, raw := range cfg.Actions {
		rule, ok, err := parseRule(raw)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", action, err)
		}
		if ok {
			r.actions[action] = rule
		}
	}

	return r, nil
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	return lo.Contains(r.whitelist, userID)
}

// PerUser returns the limit shared by all updates of a user.
func (r *Rules) PerUser() (Rule, bool) {
	if r.perUser == nil {
		return Rule{}, false
	}
	return *r.perUser, true
}

// ForAction returns the limit of one action such as "add-queue" or "/start".
func (r *Rules) ForAction(action string) (Rule, bool) {
	rule, ok := r.actions[action]
	return rule, ok
}

func parseRule(rule config.RateLimitRule) (Rule, bool, error) {
	if rule.Window == "" || rule.Limit <= 0 {
		return Rule{}, false, nil
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return Rule{}, false, err
	}
	if window <= 0 {
		return Rule{}, false, fmt.Errorf("window must be positive, got %s", rule.Window)
	}
	return Rule{Limit: rule.Limit, Window: window}, true, nil
}
