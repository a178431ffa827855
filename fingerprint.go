package proofcheck

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// FileHash returns the SHA-256 hex digest of the raw image bytes. Used for
// duplicate/provenance tracking and as the verdict-cache key; identical
// bytes always produce identical verdicts.
func FileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// duplicateThreshold is the maximum Hamming distance between two dHash
// values below which images are considered perceptually identical.
const duplicateThreshold = 10

// DuplicateFilter detects resubmitted or near-identical proof screenshots
// via perceptual hashing. Unlike FileHash it survives recompression and
// small crops. It is safe for concurrent use.
type DuplicateFilter struct {
	mu     sync.Mutex
	hashes []*goimagehash.ImageHash
}

// Seen returns true if img is perceptually identical to a previously seen
// image. If hashing fails for any reason, the image is accepted (graceful
// degradation). When the image is accepted as unique, its hash is stored
// for future comparisons.
func (d *DuplicateFilter) Seen(img image.Image) bool {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, h := range d.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist < duplicateThreshold {
			return true
		}
	}

	d.hashes = append(d.hashes, hash)
	return false
}

// SeenBytes decodes raw image bytes and applies Seen. Undecodable bytes
// are accepted as unique.
func (d *DuplicateFilter) SeenBytes(data []byte) bool {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return d.Seen(img)
}
