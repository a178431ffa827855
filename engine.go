package proofcheck

import "context"

// RecognitionEngine abstracts a text-recognition (OCR) backend. Cold start
// is assumed to be expensive, which is why instances are pooled by
// EnginePool rather than created per call.
//
// Implementations must be safe for concurrent use: concurrent extraction
// requests share the single pooled instance.
type RecognitionEngine interface {
	// Recognize returns all text recognized in the image as one string.
	Recognize(ctx context.Context, image []byte) (string, error)
	// Close releases the engine. Called by the pool on idle shutdown.
	Close() error
}

// EngineFactory creates a live engine. Invoked lazily by EnginePool on the
// first acquire after a cold start or an idle teardown.
type EngineFactory func(ctx context.Context) (RecognitionEngine, error)
