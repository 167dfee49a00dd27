// Package config provides configuration management for Waveline.
package config

import (
	"time"
)

// Config is the global configuration for Waveline.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Update is the sampling loop configuration.
	Update UpdateConfig `mapstructure:"update" validate:"required"`

	// Channels declares the waveform channels and their signal sources.
	Channels []ChannelConfig `mapstructure:"channels" validate:"dive"`

	// Detectors declares the trigger/annotation rules.
	Detectors []DetectorConfig `mapstructure:"detectors" validate:"dive"`

	// Server is the HTTP/websocket surface configuration.
	Server ServerConfig `mapstructure:"server"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`

	// Archive is the batch history persistence configuration.
	Archive ArchiveConfig `mapstructure:"archive"`

	// Bus is the commit-notification bus configuration.
	Bus BusConfig `mapstructure:"bus"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the log output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the log destination (stdout, stderr, or a file path).
	Output string `mapstructure:"output"`
}

// UpdateConfig holds the sampling loop configuration.
type UpdateConfig struct {
	// Interval is the time between two update cycles.
	Interval time.Duration `mapstructure:"interval" validate:"required,gt=0"`
}

// ChannelConfig declares one waveform channel.
type ChannelConfig struct {
	// ID is the stable channel identifier.
	ID string `mapstructure:"id" validate:"required"`

	// Label is a human-readable channel name.
	Label string `mapstructure:"label"`

	// Unit is the unit of the sample values.
	Unit string `mapstructure:"unit"`

	// Waveform selects the built-in signal source shape.
	Waveform string `mapstructure:"waveform" validate:"oneof=sine sawtooth triangle"`

	// Min and Max bound the generated values.
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max" validate:"gtefield=Min"`

	// WaveformPeriod is the duration of one full waveform cycle.
	WaveformPeriod time.Duration `mapstructure:"waveform_period" validate:"required,gt=0"`

	// SamplePeriod is the time between two samples.
	SamplePeriod time.Duration `mapstructure:"sample_period" validate:"required,gt=0"`

	// Activation is the initial activation state.
	Activation string `mapstructure:"activation" validate:"omitempty,oneof=on off standby not_ready failure"`
}

// DetectorConfig declares one trigger/annotation rule.
type DetectorConfig struct {
	// Type selects the trigger strategy.
	Type string `mapstructure:"type" validate:"oneof=rising_edge"`

	// Source is the channel inspected for trigger conditions.
	Source string `mapstructure:"source" validate:"required"`

	// Destinations are the channels that receive the annotation.
	Destinations []string `mapstructure:"destinations" validate:"required,min=1"`

	// AnnotationType is the machine-readable annotation payload type.
	AnnotationType string `mapstructure:"annotation_type" validate:"required"`

	// AnnotationLabel is a human-readable annotation description.
	AnnotationLabel string `mapstructure:"annotation_label"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	// Enabled toggles the HTTP surface.
	Enabled bool `mapstructure:"enabled"`

	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`

	// ReadTimeout, WriteTimeout and IdleTimeout bound connection lifetimes.
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// AllowedOrigins restricts websocket origins; empty allows all.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MetricsConfig holds the Prometheus configuration.
type MetricsConfig struct {
	// Enabled toggles metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Port is the standalone metrics port when the HTTP surface is disabled.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`
}

// TracingConfig holds the OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled toggles tracing export.
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the span exporter; only "otlp" is supported.
	Exporter string `mapstructure:"exporter"`

	// Endpoint is the OTLP/gRPC collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Timeout bounds span export calls.
	Timeout time.Duration `mapstructure:"timeout"`

	// Headers are additional headers sent to the collector.
	Headers map[string]string `mapstructure:"headers"`

	// SampleRatio is the trace sampling ratio in [0, 1].
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// ArchiveConfig holds the batch history persistence configuration.
type ArchiveConfig struct {
	// Enabled toggles batch archiving.
	Enabled bool `mapstructure:"enabled"`

	// Path is the Badger database directory.
	Path string `mapstructure:"path"`

	// SyncWrites forces fsync on every write.
	SyncWrites bool `mapstructure:"sync_writes"`
}

// BusConfig holds the commit-notification bus configuration.
type BusConfig struct {
	// Kind selects the transport (memory, redis).
	Kind string `mapstructure:"kind" validate:"oneof=memory redis"`

	// Redis configures the redis transport.
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}
