// Package config loads TaskBoard settings from an optional YAML file, a .env
// file and TASKBOARD_* environment variables, in increasing order of
// precedence. With nothing configured the service listens on :5000 and keeps
// its tasks in a local SQLite file.
package config
