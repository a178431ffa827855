package proofcheck

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// viewsRe matches the platform-independent "<number><unit?> views" phrase,
// e.g. "1,234 views", "3.2k views", "1.1M views".
var viewsRe = regexp.MustCompile(`(?i)\b([0-9][0-9.,]*)\s*([km])?\s*views?\b`)

// bareIntRe matches standalone integers (with optional thousands separators)
// for the platform-specific fallback scan.
var bareIntRe = regexp.MustCompile(`\b[0-9][0-9,]*\b`)

// clockTimeRe matches H:MM / HH:MM message timestamps, which pollute
// WhatsApp screenshots with false-positive integers.
var clockTimeRe = regexp.MustCompile(`\b[0-9]{1,2}:[0-9]{2}\b`)

// fallbackRule is the per-platform policy for the bare-integer fallback.
// The thresholds encode empirically observed false-positive rates from each
// platform's UI chrome (timestamps, badge counts) and differ on purpose.
type fallbackRule struct {
	minBareInteger int64
	stripPatterns  []*regexp.Regexp
}

var fallbackRules = map[Platform]fallbackRule{
	PlatformWhatsApp:  {minBareInteger: 5, stripPatterns: []*regexp.Regexp{clockTimeRe}},
	PlatformInstagram: {minBareInteger: 10},
	PlatformTikTok:    {minBareInteger: 10},
	PlatformFacebook:  {minBareInteger: 5},
}

// ExtractViewCount runs text recognition on the image via the pooled engine
// and returns the best-guess view count. It never returns an error: any
// failure (no pool, engine startup, recognition error, timeout, no
// plausible number) resolves to 0, the explicit "could not extract"
// sentinel. Callers must treat 0 as "needs human review", not as a
// measured zero.
func (cfg *Config) ExtractViewCount(ctx context.Context, image []byte, platform Platform) int64 {
	cfg.defaults()

	if cfg.Pool == nil {
		return 0
	}

	eng, err := cfg.Pool.Acquire(ctx)
	if err != nil {
		slog.Warn("proofcheck: engine acquire failed", "error", err)
		return 0
	}
	// Idle shutdown is scheduled regardless of the recognition outcome.
	defer cfg.Pool.Release()

	rctx, cancel := context.WithTimeout(ctx, cfg.RecognizeTimeout)
	defer cancel()

	text, err := eng.Recognize(rctx, image)
	if err != nil {
		slog.Debug("proofcheck: recognition failed", "platform", platform, "error", err)
		return 0
	}

	return CountFromText(text, platform)
}

// CountFromText applies the extraction heuristics to already-recognized
// text. Exposed separately so the heuristics stay testable without an
// engine.
//
// The primary heuristic looks for an explicit "<number> views" phrase on
// any platform. Only when that finds nothing does the platform-specific
// bare-integer fallback run.
func CountFromText(text string, platform Platform) int64 {
	lower := strings.ToLower(text)

	if m := viewsRe.FindStringSubmatch(lower); m != nil {
		if n := ParseNumber(m[1] + m[2]); n > 0 {
			return n
		}
	}

	rule, ok := fallbackRules[platform]
	if !ok {
		return 0
	}
	for _, re := range rule.stripPatterns {
		lower = re.ReplaceAllString(lower, " ")
	}

	var best int64
	for _, tok := range bareIntRe.FindAllString(lower, -1) {
		n, err := strconv.ParseInt(strings.ReplaceAll(tok, ",", ""), 10, 64)
		if err != nil {
			continue
		}
		if n > rule.minBareInteger && n > best {
			best = n
		}
	}
	return best
}

// ParseNumber parses a count token with optional thousands separators and
// an optional k (×1,000) or m (×1,000,000) suffix: "12,500" → 12500,
// "3.2k" → 3200, "1.1m" → 1100000, "250" → 250. The result is rounded to
// the nearest integer; anything unparseable or negative yields 0.
func ParseNumber(s string) int64 {
	s = strings.ToLower(strings.TrimSpace(s))

	factor := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		factor = 1_000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		factor = 1_000_000
		s = strings.TrimSuffix(s, "m")
	}

	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int64(math.Round(f * factor))
}
