// Package config loads the arena server configuration.
//
// Settings come from, in increasing priority: built-in defaults, an optional
// YAML file, environment variables (a .env file is loaded by main via
// godotenv) and command-line flags applied by main.
//
// Example file:
//
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//	log:
//	  level: debug
//	  format: json
//	opponent:
//	  kind: llm
//	  base_url: http://localhost:11434/v1
//	  model: llama3.2
//	  timeout: 20s
//	archive:
//	  kind: redis
//	  redis_url: redis://localhost:6379/0
//	  ttl: 168h
//
// Environment variables: ARENA_HOST, ARENA_PORT, STATIC_DIR, LOG_LEVEL,
// LOG_FORMAT, LOG_FILE, LOG_CALLER, OPPONENT_KIND, OPPONENT_BASE_URL,
// OPPONENT_MODEL, OPPONENT_API_KEY, OPPONENT_TIMEOUT, OPPONENT_AUTO_REPLY,
// ARCHIVE_KIND, ARCHIVE_DIR, REDIS_URL, DATABASE_URL, ARCHIVE_KEY_PREFIX,
// ARCHIVE_TTL, NGROK_ENABLED, NGROK_AUTHTOKEN (or NGROK_AUTH_TOKEN),
// NGROK_DOMAIN.
package config
