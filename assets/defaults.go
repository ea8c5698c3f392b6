package assets

import "embed"

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// Web holds the chat page template and its static files.
//
//go:embed web
var Web embed.FS
