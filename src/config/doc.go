// Package config defines the configuration for a weave process.
//
// Regardless of how weave is started, directly from Go code or as a standalone
// process from the command line, it uses the Config object defined in this
// package to store and forward configuration options. On top of these
// options, weave relies on a data directory, defined by Config.DataDir, where
// it looks for a few additional files:
//
//	topology.properties // the declaration of the nodes to start.
//	weave.toml // (optional) configuration file read by the weave command.
//	.env // (optional) environment variables, WEAVE_ prefixed.
//	badger_db // (optional) database directory, when the store is enabled.
package config
