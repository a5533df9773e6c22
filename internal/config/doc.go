// Package config loads cutline settings.
//
// Settings come from three layers, later ones winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, usually cutline.toml
//  3. CUTLINE_-prefixed environment variables
//
// The file and the environment are read into maps by package loader,
// merged with loader.DeepMerge and decoded into a typed Config, which is
// then validated as a whole. Validate reports every invalid setting at
// once as ValidationErrors; each wraps ErrValidationFailed.
//
// A file looks like:
//
//	[timeline]
//	width = 1920
//	height = 1080
//	fps = 30.0
//
//	[snap]
//	enabled = true
//	threshold_ms = 100
//	include_markers = false
//
//	[history]
//	max_entries = 100
//
//	[edit]
//	min_clip_duration_ms = 100
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[autosave]
//	enabled = true
//	path = "cutline-autosave.db"
//	keep = 50
//
//	[preview]
//	workers = 4
//
// Manager keeps the active settings and, once Watch is called, reloads
// them when the file changes. A reload that fails to parse or validate
// leaves the previous settings active.
package config
