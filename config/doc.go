// Package config resolves startup configuration in three layers,
// lowest to highest precedence: compiled-in defaults, an optional
// YAML file for operational tuning, and the wire payload string's
// key/value zone grammar.
package config
