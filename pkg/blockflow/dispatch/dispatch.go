// Package dispatch defines the boundary to the content generation service.
//
// The engine resolves a block's prompt, builds a Request, and awaits a
// single output string. Retry, backoff, and deadlines are applied by the
// engine around this boundary; implementations should perform one
// generation attempt per call and respect ctx cancellation.
package dispatch

import "context"

// Request carries everything a generator needs for one block.
type Request struct {
	BlockID     string `json:"block_id"`
	BlockNumber string `json:"block_number"`
	// Kind is the block's content kind: "text", "image", or "video".
	Kind string `json:"kind"`
	// Prompt is the fully resolved prompt, with upstream references
	// already substituted.
	Prompt string `json:"prompt"`
}

// Dispatcher produces generated content for blocks.
//
// A failure must surface as a returned error, never as a silent empty
// output.
type Dispatcher interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to the Dispatcher interface.
type Func func(ctx context.Context, req Request) (string, error)

// Generate implements Dispatcher.
func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
