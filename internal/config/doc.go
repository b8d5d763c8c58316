// Package config holds the stagehand configuration.
//
// Settings are resolved in three steps, later steps overriding earlier ones:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← STAGEHAND_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← stagehand.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │
//	└─────────────────────────────┘
//
// # Basic Usage
//
//	cfg, err := config.Load("stagehand.toml")
//	if err != nil {
//	    return err
//	}
//	src := cfg.AbsoluteBaseURL + cfg.ResolveRelativeAssetPath(id, ver, "renderer/plugin.js")
//
// # Environment Variables
//
//	STAGEHAND_LOG_LEVEL      log.level
//	STAGEHAND_BASE_URL       absolute_base_url
//	STAGEHAND_PLUGIN_REPO    plugin_repo
//	STAGEHAND_PLUGIN_DIR     plugin_dir
//	STAGEHAND_LOAD_TIMEOUT   load_timeout
//	STAGEHAND_MAX_RETRIES    loader.max_retries
package config
