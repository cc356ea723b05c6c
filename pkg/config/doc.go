/*
Package config defines the institute path layout and process settings.

Configuration has three layers with different lifetimes:

 1. Paths — every file and directory location, derived from one base
    path (default /institute). Fixed for the life of a process.
 2. Settings — process options (base path, tick interval, log level,
    metrics address) from flags and an optional YAML file. Fixed for
    the life of a process.
 3. Runtime tunables — the four recognized keys in the management
    store's config table, read at point of use so `config set` takes
    effect on the next tick without restarting any daemon.

This package owns layers 1 and 2 plus the key names and defaults of
layer 3; the table itself is accessed through pkg/storage.

# Directory Layout

	<base>/
	├── research/{data,scripts,outputs}
	├── management/{config,escalations}
	├── shared/{reports,templates}
	├── system/{bin,heartbeat,alerts}
	│   └── task_processor.lock
	├── logs/
	├── inbox/{researcher,director}
	├── queues/
	│   ├── research/{pending,processing,completed,failed}
	│   └── management/{pending,escalations}
	└── db/{system,research,management,shared,audit}.db

# Recognized Runtime Keys

	auto_lockdown_enabled    true   L4 promotion may trigger LOCKDOWN
	disk_warning_threshold   80     used-percent emitting DISK_WARNING
	disk_critical_threshold  90     used-percent emitting DISK_CRITICAL
	heartbeat_stale_minutes  30     heartbeat age considered stale

# Usage

	paths := config.NewPaths(basePath)
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	settings, err := config.LoadSettings(cfgFile, cfgFile == defaultCfg)
	if err != nil {
		return err
	}

Settings YAML:

	base_path: /institute
	interval: 60s
	log_level: info
	json_logs: true
	metrics_addr: 127.0.0.1:9464

# See Also

  - pkg/storage for the config table accessors
  - cmd/institute-init for tree creation and seeding
*/
package config
