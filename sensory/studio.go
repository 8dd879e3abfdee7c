package sensory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"nexus-bakery-api/logging"
	"nexus-bakery-api/metrics"
	"nexus-bakery-api/models"

	"github.com/google/uuid"
)

const (
	FallbackDescription = "Corteza vítrea, miga húmeda, aroma tostado, acidez láctica, final persistente."
	FallbackChat        = "NEURAL_LINK_ESTABLISHED. Describe tu concepto de materia culinaria."
	FallbackImageURL    = "https://images.unsplash.com/photo-1578985545062-69928b1d9587"

	// PricePerServing is the base estimate for a custom design
	PricePerServing  = 4500
	defaultServings  = 10
	designConfidence = 0.98
)

// Studio wraps a Generator with timeouts and canned fallbacks. It never fails.
type Studio struct {
	gen     Generator
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewStudio builds a studio; gen may be nil, in which case every call falls back
func NewStudio(gen Generator, timeout time.Duration, log *slog.Logger, m *metrics.Metrics) *Studio {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Studio{gen: gen, timeout: timeout, log: logging.Component(log, "sensory"), metrics: m}
}

// DesignRequest is what the cake studio sends to get a quote
type DesignRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Flavor   string `json:"flavor"`
	Theme    string `json:"theme"`
	Notes    string `json:"notes"`
	Servings int    `json:"servings"`
}

// ChatReply is the concierge answer plus the design draft extracted so far
type ChatReply struct {
	Text   string      `json:"text"`
	Design DesignDraft `json:"design"`
}

type DesignDraft struct {
	IsComplete  bool   `json:"is_complete"`
	FinalPrompt string `json:"final_prompt"`
	Theme       string `json:"theme"`
	Flavor      string `json:"flavor"`
	Servings    int    `json:"servings"`
}

// Describe returns tasting notes for a product
func (s *Studio) Describe(ctx context.Context, p models.Product) string {
	return s.call(ctx, "describe", FallbackDescription, func(ctx context.Context) (string, error) {
		return s.gen.Describe(ctx, p.Name)
	})
}

// Chat forwards a concierge message; a message containing "confirmar" closes the design
func (s *Studio) Chat(ctx context.Context, message string) ChatReply {
	text := s.call(ctx, "chat", FallbackChat, func(ctx context.Context) (string, error) {
		return s.gen.Chat(ctx, message)
	})
	return ChatReply{
		Text: text,
		Design: DesignDraft{
			IsComplete:  strings.Contains(strings.ToLower(message), "confirmar"),
			FinalPrompt: message,
			Theme:       "Sinfonía Molecular",
			Flavor:      "Vainilla/Miso",
			Servings:    12,
		},
	}
}

// Quote renders the design and prices it per serving
func (s *Studio) Quote(ctx context.Context, req DesignRequest) models.CakeDesign {
	servings := req.Servings
	if servings <= 0 {
		servings = defaultServings
	}
	image := s.call(ctx, "image", FallbackImageURL, func(ctx context.Context) (string, error) {
		return s.gen.GenerateImage(ctx, req.Prompt)
	})
	notes := req.Notes
	if notes == "" {
		notes = req.Theme
	}
	return models.CakeDesign{
		ID:            uuid.NewString(),
		ImageURL:      image,
		Prompt:        req.Prompt,
		Flavor:        req.Flavor,
		Servings:      servings,
		Theme:         req.Theme,
		Notes:         notes,
		Style:         "Avant-garde",
		PriceEstimate: float64(servings * PricePerServing),
		AIConfidence:  designConfidence,
	}
}

func (s *Studio) call(ctx context.Context, op, fallback string, fn func(context.Context) (string, error)) string {
	if s.gen == nil {
		s.metrics.GeneratorFallback(op)
		return fallback
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fn(ctx)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		if r.err == nil && strings.TrimSpace(r.out) != "" {
			return r.out
		}
		s.log.Warn("generator failed, using fallback", "operation", op, "error", r.err)
	case <-ctx.Done():
		s.log.Warn("generator timed out, using fallback", "operation", op, "timeout", s.timeout)
	}
	s.metrics.GeneratorFallback(op)
	return fallback
}
