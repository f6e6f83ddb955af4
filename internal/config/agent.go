package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/pathfinder/internal/llm"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

const (
	EnvAgentBackend    = "PATHFINDER_AGENT_BACKEND"
	EnvAgentName       = "PATHFINDER_AGENT_NAME"
	EnvAgentProvider   = "PATHFINDER_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL    = "PATHFINDER_AGENT_BASE_URL"
	EnvAgentModel      = "PATHFINDER_AGENT_MODEL_NAME"
	EnvAgentToken      = "PATHFINDER_AGENT_TOKEN"
	EnvAgentDeployment = "PATHFINDER_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion = "PATHFINDER_AGENT_API_VERSION"
	EnvAgentAuthType   = "PATHFINDER_AGENT_AUTH_TYPE"
)

// AgentConfig selects the chat backend and the model it talks to.
// The agents backend accepts any go-agents provider; eino supports
// openai and ollama.
type AgentConfig struct {
	Backend    string `toml:"backend"`
	Name       string `toml:"name"`
	Provider   string `toml:"provider"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Token      string `toml:"token"`
	Deployment string `toml:"deployment"`
	APIVersion string `toml:"api_version"`
	AuthType   string `toml:"auth_type"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AgentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Deployment != "" {
		c.Deployment = overlay.Deployment
	}
	if overlay.APIVersion != "" {
		c.APIVersion = overlay.APIVersion
	}
	if overlay.AuthType != "" {
		c.AuthType = overlay.AuthType
	}
}

// ModelConfig identifies the model for workflow requests and audit events.
func (c *AgentConfig) ModelConfig() workflow.ModelConfig {
	return workflow.ModelConfig{Provider: c.Provider, Name: c.Model}
}

// LLM converts the section into the llm client configuration. For the
// agents backend the go-agents defaults fill any field left unset.
func (c *AgentConfig) LLM() (llm.Config, error) {
	cfg := llm.Config{Backend: llm.Backend(c.Backend)}

	switch cfg.Backend {
	case llm.BackendEino:
		cfg.Eino = llm.EinoConfig{
			Provider: c.Provider,
			Model:    c.Model,
			BaseURL:  c.BaseURL,
			APIKey:   c.Token,
		}
	default:
		agent, err := c.agentConfig()
		if err != nil {
			return llm.Config{}, fmt.Errorf("agent: %w", err)
		}
		cfg.Agent = agent
	}

	return cfg, nil
}

// FinalizeAgent fills a go-agents AgentConfig from DefaultAgentConfig and
// validates the result.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults

	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider == nil || c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == nil {
		return fmt.Errorf("model required")
	}
	return nil
}

// agentConfig starts from the go-agents defaults and applies the section
// over them, the way environment overrides are applied to file values.
func (c *AgentConfig) agentConfig() (*gaconfig.AgentConfig, error) {
	agent := &gaconfig.AgentConfig{
		Name:     c.Name,
		Provider: &gaconfig.ProviderConfig{Name: c.Provider, BaseURL: c.BaseURL},
		Model:    &gaconfig.ModelConfig{Name: c.Model},
	}
	if err := FinalizeAgent(agent); err != nil {
		return nil, err
	}

	agent.Name = c.Name
	agent.Provider.Name = c.Provider
	if c.BaseURL != "" {
		agent.Provider.BaseURL = c.BaseURL
	}
	agent.Model.Name = c.Model

	if agent.Provider.Options == nil {
		agent.Provider.Options = make(map[string]any)
	}
	set := func(key, v string) {
		if v != "" {
			agent.Provider.Options[key] = v
		}
	}
	set("token", c.Token)
	set("deployment", c.Deployment)
	set("api_version", c.APIVersion)
	set("auth_type", c.AuthType)

	return agent, nil
}

func (c *AgentConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = string(llm.BackendAgents)
	}
	if c.Name == "" {
		c.Name = "pathfinder"
	}
	if c.Provider == "" {
		c.Provider = "ollama"
	}
	if c.BaseURL == "" && c.Provider == "ollama" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "llama3.1:8b"
	}
}

func (c *AgentConfig) loadEnv() {
	if v := os.Getenv(EnvAgentBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvAgentToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvAgentDeployment); v != "" {
		c.Deployment = v
	}
	if v := os.Getenv(EnvAgentAPIVersion); v != "" {
		c.APIVersion = v
	}
	if v := os.Getenv(EnvAgentAuthType); v != "" {
		c.AuthType = v
	}
}

func (c *AgentConfig) validate() error {
	switch llm.Backend(c.Backend) {
	case llm.BackendAgents:
	case llm.BackendEino:
		if c.Provider != "openai" && c.Provider != "ollama" {
			return fmt.Errorf("eino backend does not support provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	return nil
}
