// Package config loads knox configuration from local and global YAML files.
// It is internal; CLI code maps flags and files into engine configuration
// with precedence CLI > local > global.
package config
