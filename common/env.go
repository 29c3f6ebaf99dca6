// Package common provides shared types and constants used across parkdl:
// environment variable names and the closed set of supported destinations.
package common

// Environment variable names for configuration.
const (
	// ConfigDirEnv overrides the default configuration directory.
	ConfigDirEnv = "PARKDL_CONFIG_DIR"

	// DebugEnv enables debug logging.
	DebugEnv = "PARKDL_DEBUG"

	// EncryptionKeyEnv supplies a hex-encoded 32 byte key for cookie
	// encryption, bypassing the OS keyring.
	EncryptionKeyEnv = "PARKDL_COOKIE_KEY"

	// ProxyEnv sets the proxy used for outbound API calls.
	ProxyEnv = "PARKDL_PROXY"
)
