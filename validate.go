package proofcheck

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// Dimensions are the decoded pixel dimensions of an image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ValidationDetails carries the raw signal values behind a verdict, for
// downstream analysis and duplicate tracking.
type ValidationDetails struct {
	Software      string     `json:"software,omitempty"`
	Dimensions    Dimensions `json:"dimensions"`
	FileSizeBytes int64      `json:"fileSizeBytes"`
	HasEXIF       bool       `json:"hasExif"`
	AspectRatio   float64    `json:"aspectRatio"`
	FileHash      string     `json:"fileHash"`
}

// ValidationResult is the authenticity verdict for one image.
//
// IsFlagged is derived: it is true iff Flags is non-empty, never set
// independently. Flags are advisory — they surface a warning for human
// reviewers and never block a submission, which is why IsValid stays true
// under the current policy.
type ValidationResult struct {
	IsValid   bool              `json:"isValid"`
	IsFlagged bool              `json:"isFlagged"`
	Flags     []string          `json:"flags"`
	Details   ValidationDetails `json:"details"`
}

// ValidateImage scores the image for cheap tampering signals: content
// fingerprint, pixel dimensions, EXIF editing-software denylist, and file
// size. It never returns an error; a sub-check that fails internally
// degrades to treating that signal as suspicious rather than aborting.
//
// The platform argument reserves room for per-platform thresholds; the
// current policy applies the same thresholds to all four platforms.
func (cfg *Config) ValidateImage(ctx context.Context, data []byte, _ Platform) ValidationResult {
	cfg.defaults()

	var (
		fileHash string
		dims     Dimensions
		meta     *ImageMetadata
	)

	// The three probes are independent reads over the same immutable bytes.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		fileHash = FileHash(data)
		return nil
	})
	g.Go(func() error {
		dims = probeDimensions(data)
		return nil
	})
	g.Go(func() error {
		meta = ExtractImageMetadata(data)
		return nil
	})
	_ = g.Wait()

	size := int64(len(data))
	details := ValidationDetails{
		Dimensions:    dims,
		FileSizeBytes: size,
		HasEXIF:       meta != nil,
		AspectRatio:   aspectRatio(dims),
		FileHash:      fileHash,
	}

	flags, software := authenticityFlags(meta, size, cfg.MinFileSizeBytes)
	details.Software = software

	return ValidationResult{
		IsValid:   true,
		IsFlagged: len(flags) > 0,
		Flags:     flags,
		Details:   details,
	}
}

// authenticityFlags assembles the advisory flags for one image. Flag order
// is fixed (EXIF check before size check) so verdicts are deterministic.
// The returned software string is the matched editor tag, if any.
func authenticityFlags(meta *ImageMetadata, size, minSize int64) ([]string, string) {
	flags := make([]string, 0, 2) // never nil, may be empty
	software := ""

	if meta == nil {
		// A screen-recorded or re-compressed screenshot legitimately lacks
		// EXIF, so this is a weak, non-fatal signal.
		flags = append(flags, "Missing EXIF metadata")
	} else if sw := meta.EditingSoftware(); sw != "" {
		software = sw
		flags = append(flags, "Edited in "+sw)
	}
	if size < minSize {
		flags = append(flags, fmt.Sprintf("Suspicious file size (%.1fKB - too small)", float64(size)/1024))
	}

	return flags, software
}

// probeDimensions decodes only the image header for width/height.
// Returns zero dimensions if the format is unrecognized; dimensions alone
// never raise a flag under the current policy.
func probeDimensions(data []byte) Dimensions {
	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}
	}
	return Dimensions{Width: imgCfg.Width, Height: imgCfg.Height}
}

func aspectRatio(d Dimensions) float64 {
	if d.Height == 0 {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}
