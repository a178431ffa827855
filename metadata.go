package proofcheck

import (
	"bytes"
	"strings"

	"github.com/bep/imagemeta"
)

// ImageMetadata holds the EXIF/XMP fields relevant to editing detection,
// extracted from raw image bytes.
type ImageMetadata struct {
	Software    string // EXIF Software tag
	CreatorTool string // XMP CreatorTool
	Artist      string // EXIF Artist
}

// editingSoftwareKeywords are substrings that indicate a known image
// editor when found (case-insensitive) in a software/creator field. A
// genuine screenshot is written by the OS or the platform app, never by
// these tools.
var editingSoftwareKeywords = []string{
	"photoshop",
	"gimp",
	"paint.net",
	"affinity",
	"pixlr",
	"canva",
	"photopea",
	"picsart",
	"snapseed",
	"lightroom",
}

// EditingSoftware returns the first software/creator field matching the
// editor denylist, or "" if none matches. The returned string is the raw
// tag value (e.g. "Adobe Photoshop 2023"), for use in a human-readable flag.
func (m *ImageMetadata) EditingSoftware() string {
	if m == nil {
		return ""
	}
	for _, f := range []string{m.Software, m.CreatorTool} {
		if f == "" {
			continue
		}
		lower := strings.ToLower(f)
		for _, kw := range editingSoftwareKeywords {
			if strings.Contains(lower, kw) {
				return f
			}
		}
	}
	return ""
}

// wantedTags maps (source, tag-name) → true for every tag we care about.
var wantedTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {
		"Software": true,
		"Artist":   true,
	},
	imagemeta.XMP: {
		"CreatorTool": true,
	},
}

// sniffImageFormat detects the container from the magic bytes. imagemeta
// needs the format up front; it does not auto-detect.
func sniffImageFormat(data []byte) (imagemeta.ImageFormat, bool) {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return imagemeta.JPEG, true
	case len(data) >= 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return imagemeta.PNG, true
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return imagemeta.WebP, true
	case len(data) >= 4 && (bytes.Equal(data[:4], []byte("II*\x00")) || bytes.Equal(data[:4], []byte("MM\x00*"))):
		return imagemeta.TIFF, true
	}
	return imagemeta.ImageFormatAuto, false
}

// ExtractImageMetadata parses EXIF/XMP metadata from raw image bytes.
// Returns nil if the data is nil, empty, in an unrecognized container,
// carries no metadata at all, or cannot be parsed. Graceful degradation:
// never returns an error — the validator treats nil identically to "no
// metadata".
//
// Presence and content are tracked separately: any surfaced tag marks the
// metadata as present, even when none of the wanted software/creator
// fields is among them.
func ExtractImageMetadata(data []byte) *ImageMetadata {
	if len(data) == 0 {
		return nil
	}
	format, ok := sniffImageFormat(data)
	if !ok {
		return nil
	}

	meta := &ImageMetadata{}
	present := false

	err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			present = true
			if tags, ok := wantedTags[ti.Source]; ok {
				return tags[ti.Tag]
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s := tagValueString(ti.Value)
			if s == "" {
				return nil
			}
			switch ti.Tag {
			case "Software":
				meta.Software = s
			case "CreatorTool":
				meta.CreatorTool = s
			case "Artist":
				meta.Artist = s
			}
			return nil
		},
	})

	if err != nil || !present {
		return nil
	}

	return meta
}

// tagValueString extracts a string from a tag value.
// XMP values may be string or []string (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
		return ""
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
		return ""
	default:
		return ""
	}
}
