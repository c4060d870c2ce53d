// Package config manages user-level settings stored at ~/.glossa/config.yaml.
// It registers defaults for every key the plugin manager reads (root
// directories, log level, message language, worker count, preinstalled ids
// and extraction limits) and exposes typed accessors over them.
package config
