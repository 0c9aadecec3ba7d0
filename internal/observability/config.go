package observability

import (
	"strings"

	"github.com/smallbiznis/vendorcredit/internal/config"
)

const defaultServiceName = "vendorcredit"

// Config is the normalized observability view of config.Config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             lower(cfg.LogLevel, "info"),
		LogFormat:            oneOf(lower(cfg.LogFormat, "json"), "json", "json", "console"),
		OtelEnabled:          cfg.OtelEnabled && endpoint != "",
		OtelExporterEndpoint: endpoint,
		OtelExporterProtocol: oneOf(lower(cfg.OTLPProtocol, "grpc"), "grpc", "grpc", "http"),
		OtelSamplingRatio:    clampRatio(cfg.OtelSamplingRatio),
	}
}

// Debug is true for debug logging or a development environment.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func lower(value, def string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return def
	}
	return value
}

func oneOf(value, def string, allowed ...string) string {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return def
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
