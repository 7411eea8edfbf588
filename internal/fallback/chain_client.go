package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/citas-assistant/pkg/logging"
)

// ChainClient tries each provider in order and returns the first non-empty answer.
type ChainClient struct {
	clients []LLMClient
	logger  *logging.Logger
}

// NewChainClient chains the given providers. Nil entries are skipped, so
// optional secondaries can be passed unconditionally.
func NewChainClient(logger *logging.Logger, clients ...LLMClient) *ChainClient {
	if logger == nil {
		logger = logging.Default()
	}
	kept := make([]LLMClient, 0, len(clients))
	for _, c := range clients {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &ChainClient{clients: kept, logger: logger}
}

// Len returns the number of configured providers.
func (c *ChainClient) Len() int {
	return len(c.clients)
}

func (c *ChainClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if len(c.clients) == 0 {
		return LLMResponse{}, ErrNotConfigured
	}

	var lastErr error
	for i, client := range c.clients {
		resp, err := client.Complete(ctx, req)
		if err == nil && resp.Text == "" {
			err = errors.New("fallback: empty completion")
		}
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded after earlier failure", "provider_index", i)
			}
			return resp, nil
		}
		lastErr = err
		c.logger.Warn("fallback provider failed",
			"provider_index", i,
			"remaining", len(c.clients)-i-1,
			"error", err.Error(),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return LLMResponse{}, fmt.Errorf("fallback: all providers failed: %w", lastErr)
}
