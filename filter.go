// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// tagMatcher holds compiled part tag selection rules.
type tagMatcher struct {
	matcher *pathrules.Matcher
}

// newTagMatcher compiles tag rules. A nil matcher means "keep all parts".
func newTagMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*tagMatcher, error) {
	rules = normalizeTagRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	if opts.DefaultAction == pathrules.ActionUnknown {
		opts.DefaultAction = pathrules.ActionExclude
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidTagPattern, err)
	}

	return &tagMatcher{matcher: matcher}, nil
}

// normalizeTagRules drops empty patterns.
func normalizeTagRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.TrimSpace(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether tag is selected by the compiled rules.
// A nil matcher keeps everything.
func (m *tagMatcher) Match(tag string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	return m.matcher.Included(tag, false)
}

// filterPartsByTagRules keeps parts whose tag passes the rule set.
func filterPartsByTagRules(parts []PartInfo, rules []pathrules.Rule, opts pathrules.MatcherOptions) ([]PartInfo, error) {
	matcher, err := newTagMatcher(rules, opts)
	if err != nil {
		return nil, err
	}

	if matcher == nil {
		return parts, nil
	}

	out := make([]PartInfo, 0, len(parts))
	for _, part := range parts {
		if !matcher.Match(part.Tag) {
			continue
		}

		out = append(out, part)
	}

	return out, nil
}
