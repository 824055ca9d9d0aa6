// Package config handles configuration loading for coven-chat.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Every value has a default, so running without a file is fine.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path given with the -config flag
//  2. Path from COVEN_CHAT_CONFIG environment variable
//  3. ~/.config/coven-chat/config.yaml
//
// Files ending in .toml are decoded as TOML, everything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	server:
//	  token: "${COVEN_CHAT_TOKEN}"
//
// # Configuration Sections
//
//	server:
//	  base_url: "http://localhost:8080"
//	  token: "${COVEN_CHAT_TOKEN}"
//	  timeout: "0s"                # 0 = no client-side timeout
//
//	chat:
//	  language: "en"
//	  smart_question_marks: true
//	  retry_delay: "1s"
//	  batch_delay: "1s"
//
//	data:
//	  path: ""                     # default ~/.local/share/coven-chat/client.db
//
//	render:
//	  transcript_path: ""          # optional HTML transcript
//	  color: true
//
//	logging:
//	  level: "warn"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
