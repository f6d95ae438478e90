// Package config loads global process configuration using viper,
// following the same root-key-wrapper, defaults-then-validate shape the
// rest of this codebase's config loader uses.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/graphscope/pegasus-go/job"
)

// GlobalConfig is the top-level static configuration, mapped to the
// `pegasus:` root key in YAML.
type GlobalConfig struct {
	Node    NodeConfig    `mapstructure:"node"`
	Job     JobConfig     `mapstructure:"job"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// NodeConfig identifies this process among a job's servers.
type NodeConfig struct {
	IP           string `mapstructure:"ip"`   // empty = auto-detect
	Hostname     string `mapstructure:"hostname"`
	ServerIndex  int    `mapstructure:"server_index"`
	ServersTotal int    `mapstructure:"servers_total"`
}

// JobConfig carries the defaults every job on this process runs with,
// overridable per call to job.Run (spec.md §6's conf fields not tied to
// a specific dataflow: batch sizing, scope depth bound, watchdog).
type JobConfig struct {
	WorkersPerServer int  `mapstructure:"workers_per_server"`
	BatchSize        int  `mapstructure:"batch_size"`
	BatchCapacity    int  `mapstructure:"batch_capacity"`
	TimeLimitMs      int  `mapstructure:"time_limit_ms"`
	MaxScopeDepth    int  `mapstructure:"max_scope_depth"`
	TraceEnabled     bool `mapstructure:"trace_enabled"`
}

// ToJobConf builds a job.Conf from this JobConfig plus the per-call
// identity fields job.Run needs (every job submission names its own
// job_id/job_name; those don't belong in static process config).
func (j JobConfig) ToJobConf(jobID uint64, jobName string, node NodeConfig) job.Conf {
	return job.Conf{
		JobID:            jobID,
		JobName:          jobName,
		WorkersPerServer: j.WorkersPerServer,
		Servers: job.ServerConf{
			ServerIndex:  node.ServerIndex,
			ServersTotal: node.ServersTotal,
		},
		BatchSize:     j.BatchSize,
		BatchCapacity: j.BatchCapacity,
		TimeLimitMs:   j.TimeLimitMs,
		TraceEnabled:  j.TraceEnabled,
		MaxScopeDepth: j.MaxScopeDepth,
	}
}

// MetricsConfig contains Prometheus metrics server settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`
	Format  string           `mapstructure:"format"`
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig lists structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output via lumberjack rotation.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// configRoot is the top-level wrapper matching the YAML structure
// `pegasus: ...`.
type configRoot struct {
	Pegasus GlobalConfig `mapstructure:"pegasus"`
}

// Load reads configuration from path. Env vars use PEGASUS_ prefix
// (e.g. PEGASUS_LOG_LEVEL), matching the `pegasus.` key prefix via the
// dot-to-underscore env key replacer.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Pegasus

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pegasus.log.level", "info")
	v.SetDefault("pegasus.log.format", "text")
	v.SetDefault("pegasus.log.outputs.file.enabled", false)
	v.SetDefault("pegasus.log.outputs.file.path", "/var/log/pegasus/pegasus.log")
	v.SetDefault("pegasus.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("pegasus.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("pegasus.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("pegasus.log.outputs.file.rotation.compress", true)

	v.SetDefault("pegasus.metrics.enabled", true)
	v.SetDefault("pegasus.metrics.listen", ":9092")
	v.SetDefault("pegasus.metrics.path", "/metrics")

	v.SetDefault("pegasus.job.workers_per_server", 1)
	v.SetDefault("pegasus.job.batch_size", 256)
	v.SetDefault("pegasus.job.batch_capacity", 1024)
	v.SetDefault("pegasus.job.time_limit_ms", 0)
	v.SetDefault("pegasus.job.max_scope_depth", 4)

	v.SetDefault("pegasus.node.servers_total", 1)
}

// ValidateAndApplyDefaults validates configuration and resolves the
// node's IP and hostname (the same ADR-023-style resolution the rest of
// this codebase's config loader applies).
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}
	if cfg.Job.WorkersPerServer < 1 {
		return fmt.Errorf("job.workers_per_server must be >= 1, got %d", cfg.Job.WorkersPerServer)
	}
	if cfg.Job.MaxScopeDepth < 1 {
		return fmt.Errorf("job.max_scope_depth must be >= 1, got %d", cfg.Job.MaxScopeDepth)
	}

	if cfg.Node.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		cfg.Node.Hostname = hostname
	}

	resolvedIP, err := resolveNodeIP(&cfg.Node)
	if err != nil {
		return err
	}
	cfg.Node.IP = resolvedIP

	return nil
}

// resolveNodeIP resolves the node's IP: explicit config/env value first,
// otherwise the first non-loopback, non-link-local IPv4 address.
func resolveNodeIP(node *NodeConfig) (string, error) {
	if node.IP != "" {
		return node.IP, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("cannot resolve node IP: failed to list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			if ip4[0] == 169 && ip4[1] == 254 {
				continue
			}
			return ip4.String(), nil
		}
	}

	return "", fmt.Errorf("cannot resolve node IP: set PEGASUS_NODE_IP or pegasus.node.ip")
}
