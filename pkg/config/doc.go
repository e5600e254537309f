// Package config provides configuration management for CloudLaunch.
//
// Settings come from three layers, each overriding the previous one:
//
//   - Built-in defaults
//   - The YAML file $CLOUDLAUNCH_CONFIG_PATH/cloudlaunch.yml
//   - CLOUDLAUNCH_* environment variables
//
// The source of every attribute is tracked and reported by
// "cloudlaunchctl configuration show".
//
// Connection strings and keys are not configuration attributes and are
// read directly from the environment:
//
//   - DATABASE_URL: Postgres connection
//   - REDIS_URL: task broker, in-memory queue when unset
//   - CLOUDLAUNCH_DATA_KEY: credentials encryption key
//   - CLOUDLAUNCH_TOKEN_SECRET: API token signing key
//   - CLOUDLAUNCH_LOG_LEVEL: logging verbosity
package config
