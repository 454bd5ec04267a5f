// Package config loads docbridge configuration.
//
// Sources apply in order: Default, an optional overlay file named by DOCBRIDGE_CONFIG
// (.yaml, .yml, .toml, .json or .jsonc with comments), then environment variables.
// Durations are written as Go duration strings ("30s") everywhere.
//
// Environment Variables:
//   - PORT, HOST, READ_TIMEOUT, SHUTDOWN_TIMEOUT
//   - STORAGE_AUTHORITY, STORAGE_VOLUMES ("name:dir,name:dir"), GRANTS_FILE
//   - MEDIA_ROOT, MEDIA_CATALOG, DATABASE_URL, MEDIA_SCAN
//   - WORKERS, QUEUE_SIZE, DELIVERY_BUFFER, MAX_READ_BYTES
//   - PICKER_EXECUTE_TIMEOUT, PICKER_BREAKER_FAILURES, PICKER_BREAKER_TIMEOUT
//   - LOG_LEVEL, LOG_FORMAT
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS
package config
