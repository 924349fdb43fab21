package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeText is embedded once to check that a backend returns usable vectors.
const probeText = "docqa configuration check"

// ConfigValidator checks AI settings against the live backends before they
// are saved. Unconfigured settings pass.
type ConfigValidator struct {
	timeout  time.Duration
	newEmbed func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	newLLM   func(*domain.LLMSettings) (driven.LLMService, error)
}

// NewConfigValidator creates a validator that builds services with the factory.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		timeout:  pingTimeout,
		newEmbed: CreateEmbeddingService,
		newLLM:   CreateLLMService,
	}
}

// ValidateEmbedding embeds a short probe. A backend that answers Ping but
// returns no vector fails here rather than at the first ingestion.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := v.newEmbed(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("embedding probe with %s: %w", svc.Identity(), err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("embedding probe with %s returned an empty vector: %w", svc.Identity(), domain.ErrEmbeddingUnavailable)
	}
	if dims := svc.Dimensions(); dims > 0 && dims != len(vec) {
		logger.Warn("%s returned %d dimensions, expected %d; indexes use the returned size", svc.Identity(), len(vec), dims)
	}
	return nil
}

// ValidateLLM pings the configured LLM backend.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := v.newLLM(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", svc.ModelName(), err)
	}
	return nil
}
