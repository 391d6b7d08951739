// Copyright (c) 2025, Fleetscout Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/executor"
	"github.com/fleetscout/fleetscout/pkg/profile"
)

// Config is the root configuration for a fleetscout invocation. Values merge
// from the config file, FLEETSCOUT_* environment variables, and defaults,
// in that order of precedence.
type Config struct {
	Profiler  ProfilerConfig  `mapstructure:"profiler"`
	Health    HealthConfig    `mapstructure:"health"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ProfilerConfig tunes capability profiling.
type ProfilerConfig struct {
	CacheDir        string        `mapstructure:"cache_dir"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	SubProbeTimeout time.Duration `mapstructure:"sub_probe_timeout"`
	TimeoutFloor    time.Duration `mapstructure:"timeout_floor"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
}

// HealthConfig tunes the pre-flight health gate.
type HealthConfig struct {
	Throttle     int           `mapstructure:"throttle"`
	StageTimeout time.Duration `mapstructure:"stage_timeout"`
}

// SchedulerConfig tunes admission and pressure throttling.
type SchedulerConfig struct {
	FleetCeiling        int           `mapstructure:"fleet_ceiling"`
	SampleInterval      time.Duration `mapstructure:"sample_interval"`
	CPUHighWaterMark    float64       `mapstructure:"cpu_high_water_mark"`
	MemoryHighWaterMark float64       `mapstructure:"memory_high_water_mark"`
}

// ExecutorConfig tunes retry behavior.
type ExecutorConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}

// SinkConfig tunes the streaming result sink.
type SinkConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoggerConfig tunes structured logging.
type LoggerConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// Load reads configuration from the given file path, or when path is empty,
// from fleetscout.yaml in the working directory or ~/.fleetscout. A missing
// file is not an error; environment variables and defaults still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fleetscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.fleetscout")
	}

	// FLEETSCOUT_SCHEDULER_FLEET_CEILING=8 overrides scheduler.fleet_ceiling.
	v.SetEnvPrefix("fleetscout")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, "reading config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, "decoding config", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profiler.cache_ttl", defaults.ProfileCacheTTL)
	v.SetDefault("profiler.sub_probe_timeout", defaults.SubProbeTimeout)
	v.SetDefault("profiler.timeout_floor", defaults.TaskTimeoutFloor)
	v.SetDefault("profiler.max_concurrency", 8)
	v.SetDefault("health.throttle", defaults.HealthCheckThrottle)
	v.SetDefault("health.stage_timeout", defaults.HealthCheckTimeout)
	v.SetDefault("scheduler.fleet_ceiling", defaults.FleetConcurrencyCeiling)
	v.SetDefault("scheduler.sample_interval", defaults.PressureSampleInterval)
	v.SetDefault("scheduler.cpu_high_water_mark", defaults.CPUHighWaterMark)
	v.SetDefault("scheduler.memory_high_water_mark", defaults.MemoryHighWaterMark)
	v.SetDefault("executor.max_retries", defaults.MaxRetries)
	v.SetDefault("executor.base_delay", defaults.RetryBaseDelay)
	v.SetDefault("sink.buffer_size", defaults.SinkBufferSize)
	v.SetDefault("sink.flush_interval", defaults.SinkFlushInterval)
	v.SetDefault("logger.level", "info")
}

func (c *Config) validate() error {
	if c.Scheduler.FleetCeiling < 1 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("scheduler.fleet_ceiling must be >= 1, got %d", c.Scheduler.FleetCeiling))
	}
	if c.Executor.MaxRetries < 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("executor.max_retries must be >= 0, got %d", c.Executor.MaxRetries))
	}
	if c.Sink.BufferSize < 1 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("sink.buffer_size must be >= 1, got %d", c.Sink.BufferSize))
	}
	return nil
}

// ProfilePolicy maps the profiler section onto the derivation policy,
// keeping the default tables for anything not exposed in configuration.
func (c *Config) ProfilePolicy() profile.Policy {
	p := profile.DefaultPolicy()
	if c.Profiler.CacheTTL > 0 {
		p.TTL = c.Profiler.CacheTTL
	}
	if c.Profiler.SubProbeTimeout > 0 {
		p.SubProbeTimeout = c.Profiler.SubProbeTimeout
	}
	if c.Profiler.TimeoutFloor > 0 {
		p.TimeoutFloor = c.Profiler.TimeoutFloor
	}
	if c.Profiler.MaxConcurrency > 0 {
		p.MaxConcurrency = c.Profiler.MaxConcurrency
	}
	return p
}

// RetryPolicy maps the executor section onto a retry policy.
func (c *Config) RetryPolicy() executor.RetryPolicy {
	rp := executor.DefaultRetryPolicy()
	if c.Executor.MaxRetries >= 0 {
		rp.MaxRetries = c.Executor.MaxRetries
	}
	if c.Executor.BaseDelay > 0 {
		rp.BaseDelay = c.Executor.BaseDelay
	}
	return rp
}
