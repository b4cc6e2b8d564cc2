// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

// Config holds the process-wide settings a Directory and Resolver are
// constructed from. There is no configuration-file library anywhere in
// the reference corpus this package was built against, so Config is a
// plain struct assembled with functional options, following the same
// zero-dependency posture those examples use for their own settings.
type Config struct {
	Self             NodeId
	Log              Log
	DirectoryService *Subscriber
}

// Option configures a Config via NewConfig.
type Option func(*Config)

// WithLog installs the logging collaborator. The zero value otherwise
// falls back to Nil.
func WithLog(log Log) Option {
	return func(c *Config) { c.Log = log }
}

// WithDirectoryService designates sub as the mesh's directory-
// registration rendezvous node.
func WithDirectoryService(sub *Subscriber) Option {
	return func(c *Config) { c.DirectoryService = sub }
}

// NewConfig builds a Config for self, applying opts in order.
func NewConfig(self NodeId, opts ...Option) Config {
	cfg := Config{Self: self, Log: Nil{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewDirectoryFromConfig builds a Directory and Resolver wired per cfg.
func NewDirectoryFromConfig(cfg Config, interfaces InterfaceTable, keys Keyring, dirService DirectoryService) (*Directory, *Resolver) {
	dir := NewDirectory(cfg.Self, cfg.Log)
	if cfg.DirectoryService != nil {
		dir.SetDirectoryService(cfg.DirectoryService)
	}
	resolver := NewResolver(dir, interfaces, keys, dirService)
	return dir, resolver
}
