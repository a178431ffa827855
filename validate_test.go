package proofcheck

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// solidPNG is a tiny screenshot stand-in: decodable, no metadata, and far
// below the minimum plausible file size.
func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 120, B: 200, A: 255})
		}
	}
	return encodePNG(t, img)
}

// noisyPNG produces an incompressible image so the encoded file clears the
// minimum-size threshold.
func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	seed := uint32(2463534242)
	next := func() byte {
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		return byte(seed)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: next(), G: next(), B: next(), A: 255})
		}
	}
	return encodePNG(t, img)
}

func TestValidateImage_SmallScreenshot(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	data := solidPNG(t, 10, 10)
	got := cfg.ValidateImage(context.Background(), data, PlatformInstagram)

	// A 10x10 solid PNG has no metadata and is well under 50 KiB.
	if len(got.Flags) != 2 {
		t.Fatalf("Flags = %v, want missing-EXIF plus size flag", got.Flags)
	}
	if got.Flags[0] != "Missing EXIF metadata" {
		t.Errorf("Flags[0] = %q, want missing-EXIF first (EXIF check ordered before size check)", got.Flags[0])
	}
	if !bytes.Contains([]byte(got.Flags[1]), []byte("Suspicious file size")) {
		t.Errorf("Flags[1] = %q, want a suspicious-file-size flag", got.Flags[1])
	}

	if !got.IsFlagged {
		t.Errorf("IsFlagged = false with %d flags", len(got.Flags))
	}
	if !got.IsValid {
		t.Errorf("IsValid = false, flags are advisory and never invalidate")
	}
	if got.Details.HasEXIF {
		t.Errorf("HasEXIF = true for a bare PNG")
	}
	if got.Details.FileSizeBytes != int64(len(data)) {
		t.Errorf("FileSizeBytes = %d, want %d", got.Details.FileSizeBytes, len(data))
	}
	if got.Details.Dimensions != (Dimensions{Width: 10, Height: 10}) {
		t.Errorf("Dimensions = %+v, want 10x10", got.Details.Dimensions)
	}
	if got.Details.AspectRatio != 1.0 {
		t.Errorf("AspectRatio = %v, want 1.0", got.Details.AspectRatio)
	}
	if got.Details.FileHash != FileHash(data) {
		t.Errorf("FileHash = %q, want content hash of input", got.Details.FileHash)
	}
}

func TestValidateImage_LargeFileHasNoSizeFlag(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	data := noisyPNG(t, 400, 300)
	if len(data) < DefaultMinFileSize {
		t.Fatalf("fixture too small (%d bytes), need >= %d", len(data), DefaultMinFileSize)
	}

	got := cfg.ValidateImage(context.Background(), data, PlatformTikTok)

	for _, f := range got.Flags {
		if bytes.Contains([]byte(f), []byte("Suspicious file size")) {
			t.Errorf("unexpected size flag %q for %d-byte file", f, len(data))
		}
	}
	if want := 400.0 / 300.0; math.Abs(got.Details.AspectRatio-want) > 1e-9 {
		t.Errorf("AspectRatio = %v, want %v", got.Details.AspectRatio, want)
	}
}

func TestValidateImage_UndecodableBytes(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	data := bytes.Repeat([]byte{0xAB}, 10752) // 10.5 KiB of non-image bytes

	got := cfg.ValidateImage(context.Background(), data, PlatformWhatsApp)

	if got.Details.Dimensions != (Dimensions{}) {
		t.Errorf("Dimensions = %+v, want zero for undecodable input", got.Details.Dimensions)
	}
	if got.Details.AspectRatio != 0 {
		t.Errorf("AspectRatio = %v, want 0", got.Details.AspectRatio)
	}

	want := []string{
		"Missing EXIF metadata",
		"Suspicious file size (10.5KB - too small)",
	}
	if len(got.Flags) != len(want) {
		t.Fatalf("Flags = %v, want %v", got.Flags, want)
	}
	for i := range want {
		if got.Flags[i] != want[i] {
			t.Errorf("Flags[%d] = %q, want %q", i, got.Flags[i], want[i])
		}
	}
}

func TestValidateImage_EditedJPEG(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	data := exifJPEG(t, exifTagSoftware, "Adobe Photoshop 2023")

	got := cfg.ValidateImage(context.Background(), data, PlatformInstagram)

	if !got.Details.HasEXIF {
		t.Error("HasEXIF = false for a JPEG carrying an EXIF Software tag")
	}
	if got.Details.Software != "Adobe Photoshop 2023" {
		t.Errorf("Details.Software = %q, want %q", got.Details.Software, "Adobe Photoshop 2023")
	}
	if len(got.Flags) == 0 || got.Flags[0] != "Edited in Adobe Photoshop 2023" {
		t.Fatalf("Flags = %v, want editing flag first", got.Flags)
	}
	for _, f := range got.Flags {
		if f == "Missing EXIF metadata" {
			t.Errorf("missing-EXIF flag raised despite EXIF being present")
		}
	}
	if got.Details.Dimensions != (Dimensions{Width: 8, Height: 8}) {
		t.Errorf("Dimensions = %+v, want 8x8", got.Details.Dimensions)
	}
}

func TestValidateImage_PlainEXIFIsNotFlagged(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	data := exifJPEG(t, exifTagDateTime, "2024:05:01 10:00:00")

	got := cfg.ValidateImage(context.Background(), data, PlatformWhatsApp)

	if !got.Details.HasEXIF {
		t.Error("HasEXIF = false for a JPEG carrying EXIF metadata")
	}
	for _, f := range got.Flags {
		if f == "Missing EXIF metadata" {
			t.Errorf("missing-EXIF flag raised for a JPEG with a DateTime tag")
		}
	}
	if got.Details.Software != "" {
		t.Errorf("Details.Software = %q, want empty", got.Details.Software)
	}
}

func TestAuthenticityFlags(t *testing.T) {
	t.Parallel()

	const big = int64(DefaultMinFileSize)

	tests := []struct {
		name         string
		meta         *ImageMetadata
		size         int64
		wantFlags    []string
		wantSoftware string
	}{
		{
			name:      "no metadata",
			meta:      nil,
			size:      big,
			wantFlags: []string{"Missing EXIF metadata"},
		},
		{
			name:      "metadata present without software tag",
			meta:      &ImageMetadata{Artist: "Jane"},
			size:      big,
			wantFlags: []string{},
		},
		{
			name:         "editing software detected",
			meta:         &ImageMetadata{Software: "Adobe Photoshop 2023"},
			size:         big,
			wantFlags:    []string{"Edited in Adobe Photoshop 2023"},
			wantSoftware: "Adobe Photoshop 2023",
		},
		{
			name:      "camera software at exact threshold passes clean",
			meta:      &ImageMetadata{Software: "iOS 17.2"},
			size:      big,
			wantFlags: []string{},
		},
		{
			name:      "one byte under threshold is suspicious",
			meta:      &ImageMetadata{Software: "iOS 17.2"},
			size:      big - 1,
			wantFlags: []string{"Suspicious file size (50.0KB - too small)"},
		},
		{
			name: "editing software and tiny file stack in order",
			meta: &ImageMetadata{Software: "GIMP 2.10"},
			size: 2048,
			wantFlags: []string{
				"Edited in GIMP 2.10",
				"Suspicious file size (2.0KB - too small)",
			},
			wantSoftware: "GIMP 2.10",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			flags, software := authenticityFlags(tc.meta, tc.size, DefaultMinFileSize)
			if len(flags) != len(tc.wantFlags) {
				t.Fatalf("flags = %v, want %v", flags, tc.wantFlags)
			}
			for i := range tc.wantFlags {
				if flags[i] != tc.wantFlags[i] {
					t.Errorf("flags[%d] = %q, want %q", i, flags[i], tc.wantFlags[i])
				}
			}
			if software != tc.wantSoftware {
				t.Errorf("software = %q, want %q", software, tc.wantSoftware)
			}
		})
	}
}

func TestValidateImage_FlaggedInvariant(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	inputs := [][]byte{
		nil,
		[]byte{0x01},
		solidPNG(t, 10, 10),
		noisyPNG(t, 400, 300),
	}

	for _, data := range inputs {
		got := cfg.ValidateImage(context.Background(), data, PlatformFacebook)
		if got.IsFlagged != (len(got.Flags) > 0) {
			t.Errorf("IsFlagged = %v with %d flags; must always be derived", got.IsFlagged, len(got.Flags))
		}
		if !got.IsValid {
			t.Errorf("IsValid = false; current policy never invalidates")
		}
	}
}
