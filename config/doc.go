// Package config loads the application configuration.
//
// One YAML file configures both the toggle and the daemon. It is taken from
// --config when given, otherwise the first of ./config.yml,
// $XDG_CONFIG_HOME/dictate/config.yml and /etc/dictate/config.yml. A .env
// file found in the same places is loaded first, then DICTATE_* environment
// variables override file values, with underscores standing for nesting:
//
//	DICTATE_DAEMON_ADDR=127.0.0.1:7000      -> daemon.addr
//	DICTATE_RECORDER_GRACE_PERIOD=5s        -> recorder.grace_period
//	DICTATE_DELIVERY_TARGETS=clipboard,stdout
//
// Every section has defaults, so running without any file works.
package config
