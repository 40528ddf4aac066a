// Package config defines the application configuration model and the
// loading pipeline: parse YAML, apply defaults, apply environment
// variable overrides, validate.
//
// Environment variables follow the naming convention
// LEDGERHAWK_SECTION_FIELD. For example:
//
//   - LEDGERHAWK_RULEBOOK_PATH overrides rulebook.path
//   - LEDGERHAWK_CHAT_API_KEY overrides providers.chat.api_key
//   - LEDGERHAWK_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file values, which
// keeps secrets like API keys out of configuration files.
package config
