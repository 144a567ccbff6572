// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Values passed through LoadMap (command-line flags)
//  2. Environment variables (TICKSTATE_ prefix)
//  3. The YAML configuration file
//  4. Defaults already set on the target struct
//
// Environment keys use a double underscore between sections so single
// underscores can appear inside key names:
//
//	TICKSTATE_STORAGE__DATA_DIR=/var/lib/tickstate -> storage.data_dir
//
// Watcher reports writes to the configuration file so a running process
// can re-apply the settings that are safe to change live.
package confloader
