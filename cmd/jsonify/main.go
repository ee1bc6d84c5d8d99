// Command jsonify converts YAML and JSON documents to compact JSON, either
// from files (convert) or over HTTP (serve).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/freekieb7/nanojson/datetime"
	"github.com/freekieb7/nanojson/json"
	"github.com/freekieb7/nanojson/telemetry"
)

const name = "github.com/freekieb7/nanojson/cmd/jsonify"

var version = "dev"

// globalFlags are shared by every command
type globalFlags struct {
	otelEnabled  bool
	otelEndpoint string
	otelInsecure bool

	dateFormat string
	maxDepth   int
	sortKeys   bool
	capacity   int
}

func (g *globalFlags) register(app *kingpin.Application) {
	app.Flag("otel", "Export traces, metrics and logs over OTLP/gRPC.").Envar("JSONIFY_OTEL").BoolVar(&g.otelEnabled)
	app.Flag("otel-endpoint", "Collector host:port, defaults to OTEL_EXPORTER_OTLP_ENDPOINT.").Envar("JSONIFY_OTEL_ENDPOINT").StringVar(&g.otelEndpoint)
	app.Flag("otel-insecure", "Connect to the collector without TLS.").Envar("JSONIFY_OTEL_INSECURE").BoolVar(&g.otelInsecure)

	app.Flag("date-format", "Rendering of timestamps: default, iso8601 or ajax.").Envar("JSONIFY_DATE_FORMAT").Default("default").StringVar(&g.dateFormat)
	app.Flag("max-depth", "Maximum nesting depth, 0 for the default and -1 for none.").Envar("JSONIFY_MAX_DEPTH").Default("0").IntVar(&g.maxDepth)
	app.Flag("sort-keys", "Sort the keys of unordered maps.").Envar("JSONIFY_SORT_KEYS").BoolVar(&g.sortKeys)
	app.Flag("capacity", "Maximum size of one encoded document in bytes, 0 for unbounded.").Envar("JSONIFY_CAPACITY").Default("0").IntVar(&g.capacity)
}

func (g *globalFlags) options() (json.Options, error) {
	format, err := datetime.ParseFormat(g.dateFormat)
	if err != nil {
		return json.Options{}, err
	}
	if g.capacity < 0 {
		return json.Options{}, fmt.Errorf("capacity must not be negative, got %d", g.capacity)
	}

	opts := json.DefaultOptions()
	opts.DateFormat = format
	opts.MaxDepth = g.maxDepth
	opts.SortMapKeys = g.sortKeys
	opts.Capacity = g.capacity
	return opts, nil
}

func (g *globalFlags) telemetryConfig() telemetry.Config {
	return telemetry.Config{
		ServiceName:    "jsonify",
		ServiceVersion: version,
		Endpoint:       g.otelEndpoint,
		Insecure:       g.otelInsecure,
		Disabled:       !g.otelEnabled,
	}
}

// logger writes to stderr unless telemetry is exported
func (g *globalFlags) logger() *slog.Logger {
	if g.otelEnabled {
		return telemetry.Logger(name)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func newApp(ctx context.Context) *kingpin.Application {
	app := kingpin.New("jsonify", "Convert YAML and JSON documents to compact JSON.")
	app.Version(version)
	app.HelpFlag.Short('h')

	flags := &globalFlags{}
	flags.register(app)

	addConvertCommand(ctx, app, flags)
	addServeCommand(ctx, app, flags)
	return app
}

func main() {
	// Handle SIGINT (CTRL+C) gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newApp(ctx)
	if _, err := app.Parse(os.Args[1:]); err != nil {
		exitWithErr(err)
	}
}

// withTelemetry runs fn between telemetry setup and shutdown
func withTelemetry(ctx context.Context, flags *globalFlags, fn func(logger *slog.Logger) error) error {
	shutdown, err := telemetry.Setup(ctx, flags.telemetryConfig())
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}

	runErr := fn(flags.logger())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil && runErr == nil {
		return fmt.Errorf("failed to flush telemetry: %w", err)
	}
	return runErr
}

func exitWithErr(err error) {
	fmt.Fprintln(os.Stderr, "jsonify:", err)
	os.Exit(1)
}
