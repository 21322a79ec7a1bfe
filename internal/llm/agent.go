package llm

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const agentUser = "researchconnect"

// AgentProvider runs prompts through an ADK agent backed by Gemini. Each
// Generate call gets a fresh in-memory session that is deleted afterwards.
type AgentProvider struct {
	Model       string
	APIKey      string
	AgentName   string
	Instruction string

	once     sync.Once
	initErr  error
	runner   *runner.Runner
	sessions session.Service
}

// NewAgentProvider creates an agent provider reading its key from apiKeyEnv.
func NewAgentProvider(model, apiKeyEnv, agentName, instruction string) *AgentProvider {
	return &AgentProvider{
		Model:       model,
		APIKey:      os.Getenv(apiKeyEnv),
		AgentName:   agentName,
		Instruction: instruction,
	}
}

// Name returns "adk".
func (a *AgentProvider) Name() string { return "adk" }

// IsConfigured checks if the API key is set.
func (a *AgentProvider) IsConfigured() bool {
	return a.APIKey != ""
}

func (a *AgentProvider) init(ctx context.Context) error {
	a.once.Do(func() {
		model, err := gemini.NewModel(ctx, a.Model, &genai.ClientConfig{
			APIKey: a.APIKey,
		})
		if err != nil {
			a.initErr = fmt.Errorf("creating model: %w", err)
			return
		}

		ag, err := llmagent.New(llmagent.Config{
			Name:        a.AgentName,
			Model:       model,
			Description: "Research lab advisor",
			Instruction: a.Instruction,
		})
		if err != nil {
			a.initErr = fmt.Errorf("creating agent: %w", err)
			return
		}

		a.sessions = session.InMemoryService()
		a.runner, err = runner.New(runner.Config{
			AppName:        ag.Name(),
			Agent:          ag,
			SessionService: a.sessions,
		})
		if err != nil {
			a.initErr = fmt.Errorf("creating runner: %w", err)
		}
	})
	return a.initErr
}

// Generate runs prompt as one user turn and returns the agent's final
// response. maxTokens is left to the agent's model defaults.
func (a *AgentProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("agent API key not configured")
	}
	if err := a.init(ctx); err != nil {
		return "", err
	}

	created, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.AgentName,
		UserID:    agentUser,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("creating agent session: %w", err)
	}
	sess := created.Session
	defer func() {
		_ = a.sessions.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   sess.AppName(),
			UserID:    sess.UserID(),
			SessionID: sess.ID(),
		})
	}()

	stream := a.runner.Run(ctx, sess.UserID(), sess.ID(), &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", fmt.Errorf("agent run: %w", err)
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}
	if output == "" {
		return "", fmt.Errorf("empty agent response")
	}
	return output, nil
}
