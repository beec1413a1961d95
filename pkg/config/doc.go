// Package config loads wsfeed configuration.
//
// Values come from several sources. Later sources win:
//
//  1. Defaults
//  2. Global file ($XDG_CONFIG_HOME/wsfeed/config.yaml)
//  3. Local file (.wsfeed.yaml in the working directory)
//  4. Environment variables (WSFEED_*)
//  5. Command-line flags
//
// An explicit file, from --config or WSFEED_CONFIG, replaces both the global
// and the local file. Config.Sources records which source supplied each key.
//
// Files are checked against an embedded JSON Schema before they are decoded,
// so a misspelt key or a bad duration is reported with its line number.
//
// The allow list may be given inline (allowedUris, as a comma-separated string
// or a YAML list) and in fragment files named by allowListFiles globs. Glob
// patterns are relative to the directory of the file that declares them.
package config
