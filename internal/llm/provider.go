package llm

import (
	"log"
	"strings"

	"github.com/TobiSchelling/ResearchConnect/internal/config"
)

const advisorInstruction = `You are an expert academic advisor who matches students with university research labs and helps them write concise outreach emails to professors. Follow the output format requested in each message exactly.`

// CreateProvider builds the configured provider. It returns nil when the
// provider is "none" or is not usable; callers treat nil as "AI unavailable".
func CreateProvider(cfg config.LLM) Provider {
	var p Provider
	switch strings.ToLower(cfg.Provider) {
	case "none":
		return nil
	case "ollama":
		p = NewOllamaProvider(cfg.OllamaModel, cfg.OllamaURL)
	case "openai":
		p = NewOpenAIProvider(cfg.OpenAIModel, cfg.OpenAIKeyEnv)
	case "adk":
		p = NewAgentProvider(cfg.GeminiModel, cfg.GeminiKeyEnv, "research_advisor", advisorInstruction)
	default:
		p = NewGeminiProvider(cfg.GeminiModel, cfg.GeminiKeyEnv)
	}

	if p.IsConfigured() {
		log.Printf("Using %s LLM provider", p.Name())
		return p
	}

	log.Printf("LLM provider %q not available. Check its API key or that Ollama is running.", cfg.Provider)
	return nil
}
