package database

const cacheSchema = `
-- Cached provider responses, partitioned by request namespace.
-- Entries live until explicit deletion; this is a one-shot batch tool,
-- so there is no TTL and no capacity bound.
CREATE TABLE api_cache (
	namespace TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (namespace, key)
);

CREATE INDEX idx_api_cache_updated_at ON api_cache(updated_at);
`

// cacheMigrations contains incremental schema changes
// Each migration is applied in order based on the current user_version
// cacheMigrations[0] is empty because version 0 uses the base schema
var cacheMigrations = []string{
	"",
}
