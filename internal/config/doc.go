// Package config provides configuration management for affinity.
//
// Settings are layered with koanf, each layer overriding the previous:
//
//  1. DefaultSettings
//  2. an optional YAML file
//  3. AFFINITY_* environment variables
//
// # Loading
//
//	settings, err := config.Load("/home/me/.config/affinity/config.yaml")
//	if err != nil {
//	    // the file exists but is not valid YAML
//	}
//
// A missing file is not an error. Environment variables map to keys by
// dropping the prefix and lower-casing, so AFFINITY_QUEUE_LENGTH=20 sets
// queue_length. Lists such as extensions are comma-separated:
//
//	AFFINITY_EXTENSIONS=mp3,flac
//
// # Saving Settings
//
//	settings.LibraryPath = "/music"
//	err := settings.Save("/home/me/.config/affinity/config.yaml")
package config
