package models

// Provider is one OpenAI-compatible chat completion endpoint from
// providers.json. APIKeyEnv, when set, names an environment variable that
// overrides APIKey so keys can stay out of the file.
type Provider struct {
	Name      string `json:"name"`
	BaseURL   string `json:"base_url"`
	APIKey    string `json:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
	Model     string `json:"model"`
	Enabled   bool   `json:"enabled"`
}

// ProvidersConfig represents the providers.json file structure. The first
// enabled provider is the primary; the rest are failover candidates.
type ProvidersConfig struct {
	Providers []Provider `json:"providers"`
}

// FirstEnabled returns the primary provider, or false if none is enabled.
func (c *ProvidersConfig) FirstEnabled() (Provider, bool) {
	for _, p := range c.Providers {
		if p.Enabled {
			return p, true
		}
	}
	return Provider{}, false
}
