package config

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/varoOP/iptvmatchr/internal/domain"
)

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (IPTVMATCHR_*)
func Load() (*domain.Config, error) {
	viper.SetDefault("tmdb_base_url", "https://api.themoviedb.org/3")
	viper.SetDefault("iptveditor_base_url", "https://editor.iptveditor.com/api")
	viper.SetDefault("fallback_to_first_result", true)
	viper.SetDefault("batch_size", 10)

	cfg := &domain.Config{
		TmdbApiKey:            viper.GetString("tmdb_api_key"),
		TmdbBaseURL:           viper.GetString("tmdb_base_url"),
		EditorToken:           viper.GetString("iptveditor_token"),
		EditorBaseURL:         viper.GetString("iptveditor_base_url"),
		PlaylistID:            viper.GetString("playlist_id"),
		FallbackToFirstResult: viper.GetBool("fallback_to_first_result"),
		BatchSize:             viper.GetInt("batch_size"),
		DiscordWebhookURL:     viper.GetString("discord_webhook_url"),
	}

	// Validate required fields
	if cfg.TmdbApiKey == "" {
		return nil, fmt.Errorf("tmdb_api_key is required (set via config file or IPTVMATCHR_TMDB_API_KEY environment variable)")
	}
	if cfg.EditorToken == "" {
		return nil, fmt.Errorf("iptveditor_token is required (set via config file or IPTVMATCHR_IPTVEDITOR_TOKEN environment variable)")
	}
	if cfg.PlaylistID == "" {
		return nil, fmt.Errorf("playlist_id is required (set via config file or IPTVMATCHR_PLAYLIST_ID environment variable)")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch_size must be positive, got %d", cfg.BatchSize)
	}

	return cfg, nil
}
