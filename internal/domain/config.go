package domain

type Config struct {
	TmdbApiKey            string `toml:"tmdb_api_key" mapstructure:"tmdb_api_key"`
	TmdbBaseURL           string `toml:"tmdb_base_url" mapstructure:"tmdb_base_url"`
	EditorToken           string `toml:"iptveditor_token" mapstructure:"iptveditor_token"`
	EditorBaseURL         string `toml:"iptveditor_base_url" mapstructure:"iptveditor_base_url"`
	PlaylistID            string `toml:"playlist_id" mapstructure:"playlist_id"`
	FallbackToFirstResult bool   `toml:"fallback_to_first_result" mapstructure:"fallback_to_first_result"`
	BatchSize             int    `toml:"batch_size" mapstructure:"batch_size"`
	DiscordWebhookURL     string `toml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
}
