package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/alecthomas/units"
	"github.com/quic-go/quic-go/http3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/freekieb7/nanojson/json"
	"github.com/freekieb7/nanojson/yamlnode"
)

// serveCommand exposes the converter as POST /convert
type serveCommand struct {
	flags *globalFlags

	listen          string
	tlsCert         string
	tlsKey          string
	http3           bool
	maxBody         units.Base2Bytes
	shutdownTimeout time.Duration
}

func addServeCommand(ctx context.Context, app *kingpin.Application, flags *globalFlags) {
	cmd := &serveCommand{flags: flags}
	serve := app.Command("serve", "Serve the converter over HTTP.")
	serve.Flag("listen", "Address to listen on.").Envar("JSONIFY_LISTEN").Default(":8080").StringVar(&cmd.listen)
	serve.Flag("tls-cert", "TLS certificate file.").Envar("JSONIFY_TLS_CERT").StringVar(&cmd.tlsCert)
	serve.Flag("tls-key", "TLS key file.").Envar("JSONIFY_TLS_KEY").StringVar(&cmd.tlsKey)
	serve.Flag("http3", "Also serve HTTP/3 over QUIC on the same port, requires TLS.").Envar("JSONIFY_HTTP3").BoolVar(&cmd.http3)
	serve.Flag("max-body", "Maximum request body size.").Envar("JSONIFY_MAX_BODY").Default("4MB").BytesVar(&cmd.maxBody)
	serve.Flag("shutdown-timeout", "Time allowed for in-flight requests on shutdown.").Envar("JSONIFY_SHUTDOWN_TIMEOUT").Default("10s").DurationVar(&cmd.shutdownTimeout)

	serve.Action(func(_ *kingpin.ParseContext) error {
		return withTelemetry(ctx, flags, func(logger *slog.Logger) error {
			return cmd.run(ctx, logger)
		})
	})
}

func (cmd *serveCommand) useTLS() bool {
	return cmd.tlsCert != "" || cmd.tlsKey != ""
}

func (cmd *serveCommand) run(ctx context.Context, logger *slog.Logger) error {
	if cmd.http3 && !cmd.useTLS() {
		return errors.New("--http3 requires --tls-cert and --tls-key")
	}

	opts, err := cmd.flags.options()
	if err != nil {
		return err
	}

	handler := otelhttp.NewHandler(newConvertHandler(json.NewEncoder(opts), int64(cmd.maxBody), logger), "jsonify")

	server := &http.Server{
		Addr:              cmd.listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var quicServer *http3.Server
	if cmd.http3 {
		quicServer = &http3.Server{Addr: cmd.listen, Handler: handler}
		// Advertise HTTP/3 to TCP clients
		server.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = quicServer.SetQUICHeaders(w.Header())
			handler.ServeHTTP(w, r)
		})
	}

	serverErrorChannel := make(chan error, 2)
	go func() {
		logger.InfoContext(ctx, "listening", "addr", cmd.listen, "tls", cmd.useTLS())
		if cmd.useTLS() {
			serverErrorChannel <- server.ListenAndServeTLS(cmd.tlsCert, cmd.tlsKey)
			return
		}
		serverErrorChannel <- server.ListenAndServe()
	}()
	if quicServer != nil {
		go func() {
			logger.InfoContext(ctx, "listening for HTTP/3", "addr", cmd.listen)
			serverErrorChannel <- quicServer.ListenAndServeTLS(cmd.tlsCert, cmd.tlsKey)
		}()
	}

	var serveErr error
	select {
	case serveErr = <-serverErrorChannel:
		logger.ErrorContext(ctx, "server stopped", "error", serveErr)
	case <-ctx.Done():
		logger.InfoContext(ctx, "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cmd.shutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if quicServer != nil {
		err = errors.Join(err, quicServer.Close())
	}
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}

const (
	contentTypeJSON   = "application/json"
	contentTypeNDJSON = "application/x-ndjson"
)

// newConvertHandler answers POST /convert with the request documents as JSON.
// A single document is returned as is, several as newline delimited JSON.
func newConvertHandler(enc *json.Encoder, maxBody int64, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /convert", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
				return
			}
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}

		docs, err := yamlnode.Decode(bytes.NewReader(data))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}

		body := make([]byte, 0, 512)
		for i, doc := range docs {
			b, err := enc.Encode(ctx, doc)
			if err != nil {
				logger.WarnContext(ctx, "failed to encode document", "document", i+1, "error", err)
				writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("document %d: %v", i+1, err), json.Outcome(err))
				return
			}
			body = append(body, b...)
			body = append(body, '\n')
		}

		contentType := contentTypeJSON
		if len(docs) != 1 {
			contentType = contentTypeNDJSON
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	})

	return mux
}

func writeError(w http.ResponseWriter, status int, message, reason string) {
	m := json.NewOrderedMap(2)
	m.Set("error", message)
	if reason != "" {
		m.Set("reason", reason)
	}

	b, err := json.Marshal(m)
	if err != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
