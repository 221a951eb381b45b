// Package temporal dials the Temporal frontend with tracing and structured logging attached.
package temporal

import (
	"log/slog"
	"os"
	"strings"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	temporallog "go.temporal.io/sdk/log"

	platformobservability "github.com/Apurer/go-gin-dog-adoption/internal/platform/observability"
)

// Settings locates the Temporal namespace.
type Settings struct {
	Address   string
	Namespace string
}

// SettingsFromEnv reads TEMPORAL_ADDRESS and TEMPORAL_NAMESPACE, defaulting to a local server.
func SettingsFromEnv() Settings {
	return Settings{
		Address:   envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
	}
}

// Dial connects a client whose workflow and activity calls are traced under tracerName.
func Dial(settings Settings, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	interceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	if instruments != nil && instruments.Logger != nil {
		logger = instruments.Logger
	}
	if settings.Address == "" {
		settings.Address = client.DefaultHostPort
	}
	if settings.Namespace == "" {
		settings.Namespace = client.DefaultNamespace
	}
	options := client.Options{
		HostPort:  settings.Address,
		Namespace: settings.Namespace,
		Logger:    temporallog.NewStructuredLogger(logger.With(slog.String("component", "temporal"))),
	}
	options.Interceptors = append(options.Interceptors, interceptor)
	return client.Dial(options)
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
