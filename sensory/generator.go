// Package sensory produces the generative content shown around the catalog: tasting
// notes for a product, the cake studio concierge and rendered cake designs. Every call
// is bounded by a timeout and degrades to canned content when the generator fails.
package sensory

import "context"

// Generator is the boundary to the generative model
type Generator interface {
	// Describe returns short tasting notes for a product
	Describe(ctx context.Context, productName string) (string, error)
	// Chat answers one concierge message
	Chat(ctx context.Context, message string) (string, error)
	// GenerateImage renders a cake design and returns an image URL (data URLs allowed)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}
