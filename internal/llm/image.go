package llm

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultImageTimeout = 60 * time.Second
	imageStyle          = " black and white, grainy newspaper photography style, high contrast, 1980s press photo aesthetic"
)

// ImageGenerator produces a picture for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Illustrator produces front-page photos. It spends from the same request
// budget as text generation.
type Illustrator struct {
	gen     ImageGenerator
	limiter *RateLimiter
	timeout time.Duration
}

// NewIllustrator wraps an image generator with the shared limiter.
func NewIllustrator(gen ImageGenerator, limiter *RateLimiter, timeout time.Duration) *Illustrator {
	if timeout <= 0 {
		timeout = DefaultImageTimeout
	}
	return &Illustrator{gen: gen, limiter: limiter, timeout: timeout}
}

// Illustrate returns a data URL for the visual prompt.
func (il *Illustrator) Illustrate(ctx context.Context, visualPrompt string) (string, error) {
	if err := il.limiter.Allow(); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, il.timeout)
	defer cancel()

	start := time.Now()
	url, err := il.gen.GenerateImage(ctx, visualPrompt+imageStyle)
	aiRequestDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	if err != nil {
		aiRequestsTotal.WithLabelValues("image", "error").Inc()
		return "", fmt.Errorf("generate image: %w", err)
	}
	aiRequestsTotal.WithLabelValues("image", "success").Inc()
	return url, nil
}
