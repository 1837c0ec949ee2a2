// Package config loads toolverse settings.
//
// Settings come from built-in defaults, then an optional TOML file, then
// TOOLVERSE_* environment variables. Credential fields may hold secret
// references which Resolve expands before use. The result converts into the
// option structs of the packages it configures.
package config
