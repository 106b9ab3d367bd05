// Package classifier decides whether a user-agent string belongs to a known
// AI crawler and which bot identity it maps to.
package classifier

import (
	"strings"

	"ai-bot-analyzer/internal/config"
)

// OtherBot buckets bot traffic that matched no specific keyword during tallying
const OtherBot = "other"

// Match is the outcome of classifying a single user-agent string
type Match struct {
	IsBot bool
	Bot   string
}

// Classifier matches user agents against an ordered keyword table. The table
// order is a priority list: the first keyword whose substring appears in the
// lowercased user agent determines the bot identity. Classifier is stateless
// and safe for concurrent use.
type Classifier struct {
	keywords   []config.Keyword
	exclusions []string
}

// New creates a Classifier from an ordered keyword table and the list of
// googlebot sub-agent substrings that must not count as bot traffic.
func New(keywords []config.Keyword, exclusions []string) *Classifier {
	return &Classifier{keywords: keywords, exclusions: exclusions}
}

// Default returns a Classifier using the built-in keyword tables.
func Default() *Classifier {
	return New(config.DefaultBotKeywords(), config.DefaultGooglebotExclusions())
}

// Classify reports whether userAgent belongs to a known AI bot.
//
// A user agent containing "googlebot" is a bot unless it also contains one of
// the exclusion substrings (image/video fetchers); the exclusion overrides the
// base match. Everything else is matched against the keyword table in order.
func (c *Classifier) Classify(userAgent string) Match {
	ua := strings.ToLower(userAgent)

	if strings.Contains(ua, "googlebot") {
		for _, excl := range c.exclusions {
			if strings.Contains(ua, excl) {
				return Match{}
			}
		}
	}

	for _, kw := range c.keywords {
		if strings.Contains(ua, kw.Match) {
			return Match{IsBot: true, Bot: kw.Bot}
		}
	}
	return Match{}
}

// Identify buckets a user agent for tallying: the first matching keyword's
// identity, or OtherBot when no keyword matches. Unlike Classify it applies
// no exclusions; it is a reporting convenience, not a classification.
func (c *Classifier) Identify(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, kw := range c.keywords {
		if strings.Contains(ua, kw.Match) {
			return kw.Bot
		}
	}
	return OtherBot
}
