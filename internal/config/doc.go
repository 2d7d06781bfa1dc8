// Package config loads and validates the console's YAML configuration.
// Files may reference environment variables with ${VAR} syntax; references
// are expanded before parsing so credentials can stay out of the file.
package config
