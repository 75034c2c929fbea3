package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvMarketplaceMode is the environment variable name for mode selection.
	EnvMarketplaceMode = "MARKETPLACE_MODE"
	// ModeMock indicates the mock client should be used.
	ModeMock = "MOCK"
)

// NewLLMClient creates an LLM client based on the MARKETPLACE_MODE environment
// variable. MARKETPLACE_MODE=MOCK returns a MockClient; anything else returns
// a real Client.
func NewLLMClient(baseURL, apiKey string, timeout time.Duration) LLMClient {
	if os.Getenv(EnvMarketplaceMode) == ModeMock {
		log.Println("MARKETPLACE_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, timeout)
}
