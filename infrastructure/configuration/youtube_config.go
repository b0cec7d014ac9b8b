package configuration

import (
	"encoding/json"
	"os"
	"strings"
)

// YouTubeConfig represents YouTube API configuration
type YouTubeConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AccessToken  string
	RefreshToken string
	APIKey       string
}

// GetYouTubeConfig returns YouTube configuration from JSON config with environment variable fallback
func GetYouTubeConfig() *YouTubeConfig {
	config := &YouTubeConfig{
		ClientID:     getConfigValue(C.YouTube.ClientID, "YOUTUBE_CLIENT_ID", ""),
		ClientSecret: getConfigValue(C.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", ""),
		RedirectURL:  getConfigValue(C.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URL", ""),
		AccessToken:  getEnv("YOUTUBE_ACCESS_TOKEN", ""),
		RefreshToken: getEnv("YOUTUBE_REFRESH_TOKEN", ""),
		APIKey:       getConfigValue(C.YouTube.APIKey, "YOUTUBE_API_KEY", ""),
	}
	if config.AccessToken == "" || config.RefreshToken == "" {
		access, refresh := readTokenFile("token.json")
		if config.AccessToken == "" {
			config.AccessToken = access
		}
		if config.RefreshToken == "" {
			config.RefreshToken = refresh
		}
	}
	return config
}

// HasOAuth reports whether the config can act on behalf of an account.
// Subscriptions need it; an API key alone only serves public lookups.
func (c *YouTubeConfig) HasOAuth() bool {
	return c.RefreshToken != "" && c.ClientID != ""
}

func (c *YouTubeConfig) Enabled() bool {
	return c.HasOAuth() || c.APIKey != ""
}

// TwitchConfig represents Twitch Helix configuration
type TwitchConfig struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	AccessToken       string
	RefreshToken      string
	RequestsPerSecond float64
	Burst             int
}

// GetTwitchConfig returns Twitch configuration from JSON config with environment variable fallback
func GetTwitchConfig() *TwitchConfig {
	config := &TwitchConfig{
		BaseURL:           getConfigValue(C.Twitch.BaseURL, "TWITCH_BASE_URL", "https://api.twitch.tv/helix"),
		ClientID:          getConfigValue(C.Twitch.ClientID, "TWITCH_CLIENT_ID", ""),
		ClientSecret:      getConfigValue(C.Twitch.ClientSecret, "TWITCH_CLIENT_SECRET", ""),
		AccessToken:       getEnv("TWITCH_ACCESS_TOKEN", ""),
		RefreshToken:      getEnv("TWITCH_REFRESH_TOKEN", ""),
		RequestsPerSecond: C.Twitch.RequestsPerSecond,
		Burst:             C.Twitch.Burst,
	}
	// Helix allows 800 points per minute for a user token.
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 13
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	return config
}

func (c *TwitchConfig) Enabled() bool {
	return c.ClientID != "" && (c.AccessToken != "" || c.ClientSecret != "")
}

func readTokenFile(path string) (access, refresh string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ""
	}
	var tokenFile struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(data, &tokenFile); err != nil {
		return "", ""
	}
	return tokenFile.AccessToken, tokenFile.RefreshToken
}

// getConfigValue gets value from config first, then environment variable, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	// Environment variable takes precedence when provided
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// Otherwise use config value if set and not a placeholder
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
