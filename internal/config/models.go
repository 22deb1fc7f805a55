package config

import "time"

// LLMConfig represents the configuration for the external classifier
type LLMConfig struct {
	Provider string
	Timeout  time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// AnalysisConfig represents the configuration for the rule-based pipeline
type AnalysisConfig struct {
	TrustedDomains     []string
	WhitelistedDomains []string
	MaxTextSize        int
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	timeout, err := c.GetDuration("llm.timeout")
	if err != nil {
		timeout = 10 * time.Second
	}
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
		Timeout:  timeout,
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetAnalysis returns the rule-based analysis configuration
func (c *Config) GetAnalysis() AnalysisConfig {
	return AnalysisConfig{
		TrustedDomains:     c.GetStringSlice("analysis.trusted_domains"),
		WhitelistedDomains: c.GetStringSlice("analysis.whitelisted_domains"),
		MaxTextSize:        c.GetInt("analysis.max_text_size"),
	}
}
