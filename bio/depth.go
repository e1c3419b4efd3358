package bio

import "github.com/godot-re/gdre/gdreerr"

// DefaultMaxDepth bounds recursive Variant/resource-property decoding so
// that a malicious or corrupt stream can't blow the goroutine stack with a
// deeply nested Array/Dictionary.
const DefaultMaxDepth = 256

// DepthGuard centralizes the recursion-depth invariant shared by the
// variant, resource, and gdscript decoders (see invariant 3(d): container
// elements are themselves decoded recursively, depth bounded by a
// configurable cap).
type DepthGuard struct {
	max int
	cur int
}

// NewDepthGuard returns a guard capped at max. max <= 0 means DefaultMaxDepth.
func NewDepthGuard(max int) *DepthGuard {
	if max <= 0 {
		max = DefaultMaxDepth
	}
	return &DepthGuard{max: max}
}

// Enter increments the current depth and fails once the cap is exceeded.
func (g *DepthGuard) Enter() error {
	g.cur++
	if g.cur > g.max {
		return gdreerr.New(gdreerr.DepthExceeded, "variant recursion depth exceeded")
	}
	return nil
}

// Exit decrements the current depth; call via defer after a successful Enter.
func (g *DepthGuard) Exit() {
	if g.cur > 0 {
		g.cur--
	}
}
