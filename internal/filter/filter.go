// Package filter applies the declarative include/exclude rule set to raw
// notifications before they reach the store. Keep is a pure function of the
// notification, the config and the supplied clock reading — reconfiguring
// the pipeline is a pointer swap in the engine, nothing here holds state.
package filter

import (
	"strings"
	"time"

	"github.com/gh-notifier/gh-notifier/internal/config"
	"github.com/gh-notifier/gh-notifier/internal/github"
)

// Keep reports whether the notification survives the filter pipeline.
// Rules run in a fixed order and the first failing rule short-circuits:
//
//  1. repository include, 2. repository exclude
//  3. organization include/exclude (prefix before "/")
//  4. private-repo toggle, 5. fork-repo toggle
//  6. reason include/exclude, 7. subject-kind include/exclude
//  8. title substrings, 9. repository-name substrings
//  10. draft pull request heuristics
//  11. minimum updated age against now
func Keep(n github.Notification, cfg config.FilterConfig, now time.Time) bool {
	repo := n.Repository.FullName

	if !allowed(repo, cfg.Repositories) {
		return false
	}
	if !allowed(n.Organization(), cfg.Organizations) {
		return false
	}
	if cfg.ExcludePrivateRepos && n.Repository.Private {
		return false
	}
	if cfg.ExcludeForkRepos && n.Repository.Fork {
		return false
	}
	if !allowed(n.Reason, cfg.Reasons) {
		return false
	}
	if !allowed(n.Subject.Type, cfg.SubjectKinds) {
		return false
	}
	if !titleAllowed(n.Subject.Title, cfg) {
		return false
	}
	if len(cfg.RepositoryContains) > 0 && !containsAnyFold(repo, cfg.RepositoryContains) {
		return false
	}
	if cfg.ExcludeDraftPRs && n.Subject.Type == "PullRequest" && isDraftTitle(n.Subject.Title) {
		return false
	}
	if cfg.MinimumUpdatedAge > 0 {
		if updated := n.UpdatedAtTime(); !updated.IsZero() &&
			now.Sub(updated) < cfg.MinimumUpdatedAge {
			return false
		}
	}
	return true
}

// allowed applies include/exclude set semantics: an empty include list
// allows everything, a non-empty one allows only its members; exclude is
// subtractive and applied after include.
func allowed(value string, lists config.FilterLists) bool {
	if len(lists.Include) > 0 && !containsExact(value, lists.Include) {
		return false
	}
	return !containsExact(value, lists.Exclude)
}

// titleAllowed enforces the title substring rules: with a non-empty
// title_contains at least one substring must match case-insensitively, and
// any title_not_contains match drops the item.
func titleAllowed(title string, cfg config.FilterConfig) bool {
	if len(cfg.TitleContains) > 0 && !containsAnyFold(title, cfg.TitleContains) {
		return false
	}
	for _, sub := range cfg.TitleNotContains {
		if sub != "" && strings.Contains(strings.ToLower(title), strings.ToLower(sub)) {
			return false
		}
	}
	return true
}

// isDraftTitle recognizes the draft pull request title conventions:
// the bare word "draft", "[draft]", a "draft:" or "[draft" prefix, or a
// "(draft" anywhere in the title.
func isDraftTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	switch {
	case t == "draft", t == "[draft]":
		return true
	case strings.HasPrefix(t, "draft:"), strings.HasPrefix(t, "[draft"):
		return true
	case strings.Contains(t, "(draft"):
		return true
	}
	return false
}

func containsExact(value string, list []string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func containsAnyFold(value string, subs []string) bool {
	lower := strings.ToLower(value)
	for _, sub := range subs {
		if sub != "" && strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
