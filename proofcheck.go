// Package proofcheck verifies influencer-submitted proof screenshots: it
// extracts a claimed view count from recognized text and scores the image
// for cheap, explainable tampering signals. Both checks are advisory —
// the pipeline degrades to conservative defaults (a zero count, a flag)
// instead of failing, because OCR and EXIF presence are unreliable inputs.
package proofcheck

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Platform identifies the social network a screenshot claims to be from.
// It selects the extraction fallback heuristic and validator thresholds.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tiktok"
)

// ParsePlatform validates a caller-supplied platform tag.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(s); p {
	case PlatformWhatsApp, PlatformInstagram, PlatformFacebook, PlatformTikTok:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

const (
	// DefaultRecognizeTimeout bounds a single recognition call. OCR on a
	// pathological image can hang; a timeout counts as "no text".
	DefaultRecognizeTimeout = 20 * time.Second

	// DefaultMinFileSize is the minimum plausible byte size for a genuine
	// screenshot. Heavily recompressed or cropped images fall below it.
	DefaultMinFileSize = 50 * 1024
)

// Config holds all dependencies injected by the consumer.
type Config struct {
	Pool             *EnginePool   // required for extraction (nil = extraction always returns 0)
	RecognizeTimeout time.Duration // default: DefaultRecognizeTimeout
	MinFileSizeBytes int64         // default: DefaultMinFileSize (50 KiB)
}

// defaults fills zero-value fields with sensible defaults.
func (cfg *Config) defaults() {
	if cfg.RecognizeTimeout <= 0 {
		cfg.RecognizeTimeout = DefaultRecognizeTimeout
	}
	if cfg.MinFileSizeBytes <= 0 {
		cfg.MinFileSizeBytes = DefaultMinFileSize
	}
}

// Verification is the merged outcome of one submission check.
type Verification struct {
	ViewCount  int64
	Validation ValidationResult
}

// VerifySubmission runs the view-count extractor and the authenticity
// validator concurrently over the same immutable image bytes and merges
// their results. It never returns an error: both components are fail-soft
// and resolve internal failures to conservative defaults.
func (cfg *Config) VerifySubmission(ctx context.Context, image []byte, platform Platform) Verification {
	cfg.defaults()

	var v Verification
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v.ViewCount = cfg.ExtractViewCount(ctx, image, platform)
		return nil
	})
	g.Go(func() error {
		v.Validation = cfg.ValidateImage(ctx, image, platform)
		return nil
	})
	_ = g.Wait()

	return v
}
