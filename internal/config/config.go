package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Dataset  Dataset  `yaml:"dataset"`
	Server   Server   `yaml:"server"`
	Uploads  Uploads  `yaml:"uploads"`
	LLM      LLM      `yaml:"llm"`
	Outreach Outreach `yaml:"outreach"`
	Populate Populate `yaml:"populate"`
	Enrich   Enrich   `yaml:"enrich"`
	Output   Output   `yaml:"output"`
	Logging  Logging  `yaml:"logging"`
}

// Dataset selects where the lab directory is loaded from: "file", "sqlite" or "s3".
type Dataset struct {
	Source string   `yaml:"source"`
	File   string   `yaml:"file"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Key          string `yaml:"key"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Uploads struct {
	Dir         string `yaml:"dir"`
	ClientMaxMB int    `yaml:"client_max_mb"`
	ServerMaxMB int    `yaml:"server_max_mb"`
}

type LLM struct {
	Provider     string `yaml:"provider"`
	GeminiModel  string `yaml:"gemini_model"`
	GeminiKeyEnv string `yaml:"gemini_key_env"`
	OpenAIModel  string `yaml:"openai_model"`
	OpenAIKeyEnv string `yaml:"openai_key_env"`
	OllamaModel  string `yaml:"ollama_model"`
	OllamaURL    string `yaml:"ollama_url"`
	MaxTokens    int    `yaml:"max_tokens"`
}

type Outreach struct {
	MaxIterations int `yaml:"max_iterations"`
	MinWords      int `yaml:"min_words"`
	MaxWords      int `yaml:"max_words"`
}

type Populate struct {
	Universities      []string      `yaml:"universities"`
	LabsPerUniversity int           `yaml:"labs_per_university"`
	Delay             time.Duration `yaml:"delay"`
}

type Enrich struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	MinDescription    int           `yaml:"min_description"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for researchconnect.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "researchconnect")
}

// DataDir returns the XDG data directory for researchconnect.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "researchconnect")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/researchconnect/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'researchconnect init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Dataset: Dataset{
			Source: "file",
			File:   "data/labs.json",
			S3: S3Config{
				Region:       "auto",
				AccessKeyEnv: "S3_ACCESS_KEY_ID",
				SecretKeyEnv: "S3_SECRET_ACCESS_KEY",
			},
		},
		Server: Server{Host: "127.0.0.1", Port: 8080},
		Uploads: Uploads{
			ClientMaxMB: 10,
			ServerMaxMB: 32,
		},
		LLM: LLM{
			Provider:     "gemini",
			GeminiModel:  "gemini-2.5-flash",
			GeminiKeyEnv: "GEMINI_API_KEY",
			OpenAIModel:  "gpt-4o-mini",
			OpenAIKeyEnv: "OPENAI_API_KEY",
			OllamaModel:  "qwen2.5:7b",
			OllamaURL:    "http://localhost:11434",
			MaxTokens:    1200,
		},
		Outreach: Outreach{
			MaxIterations: 5,
			MinWords:      150,
			MaxWords:      300,
		},
		Populate: Populate{
			LabsPerUniversity: 15,
			Delay:             2 * time.Second,
		},
		Enrich: Enrich{
			RequestsPerSecond: 1,
			Timeout:           15 * time.Second,
			UserAgent:         "ResearchConnect/1.0",
			MinDescription:    80,
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Dataset.Source {
	case "file", "sqlite", "s3":
	default:
		return fmt.Errorf("dataset.source must be file, sqlite or s3, got %q", c.Dataset.Source)
	}
	switch c.LLM.Provider {
	case "gemini", "adk", "openai", "ollama", "none":
	default:
		return fmt.Errorf("llm.provider must be gemini, adk, openai, ollama or none, got %q", c.LLM.Provider)
	}
	if c.Outreach.MinWords > c.Outreach.MaxWords {
		return fmt.Errorf("outreach.min_words (%d) exceeds max_words (%d)", c.Outreach.MinWords, c.Outreach.MaxWords)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabasePath returns the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.GetDataDir(), "researchconnect.db")
}

// UploadDir returns the transcript upload directory, defaulting under the data directory.
func (c *Config) UploadDir() string {
	if c.Uploads.Dir != "" {
		return c.Uploads.Dir
	}
	return filepath.Join(c.GetDataDir(), "uploads")
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
