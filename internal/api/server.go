// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware for the post browser.
package api

import (
	_ "embed"
	"net/http"
	"postbrowser/internal/api/handler/pagehandler"
	"postbrowser/internal/api/handler/v1handler"
	"postbrowser/internal/app"
	"postbrowser/internal/config"
	"postbrowser/pkg/controller"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

// v1Spec contains the embedded OpenAPI specification for version 1 of the API.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// Options holds configuration for the HTTP server.
// It is typically created from a config.Config via NewOptions.
// Zero durations fall back to the net/http defaults.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout is the global timeout applied via http.TimeoutHandler for handling requests.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
}

// NewOptions constructs an Options value from the provided application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
	}
}

type Deps struct {
	Page *app.Page
	// Gatherer backs the metrics endpoint. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// NewRouter returns the routes of the server:
// - the HTML page and its form endpoints
// - v1 JSON API
// - embedded OpenAPI v1 spec and Swagger UI
// - Prometheus metrics endpoint (MetricsPath)
// - pprof endpoints for profiling
func NewRouter(deps Deps, opts Options) *mux.Router {
	r := mux.NewRouter()

	// page
	page := pagehandler.New(deps.Page)
	r.HandleFunc(pagehandler.IndexPath, page.Index).Methods(http.MethodGet)
	r.HandleFunc(pagehandler.SelectPath, page.Select).Methods(http.MethodPost)
	r.HandleFunc("/posts/{postID:[0-9]+}/toggle", page.Toggle).Methods(http.MethodPost)

	// v1 api
	v1 := v1handler.New(v1handler.Deps{Page: deps.Page})
	r.HandleFunc("/v1/state", v1.GetState).Methods(http.MethodGet)
	r.HandleFunc("/v1/selection", v1.PostSelection).Methods(http.MethodPost)
	r.HandleFunc("/v1/posts/{postID:[0-9]+}/toggle", v1.PostToggle).Methods(http.MethodPost)

	// v1 specs file
	r.HandleFunc("/specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	}).Methods(http.MethodGet)
	// v1 api swagger playground
	r.PathPrefix("/v1/docs/").Handler(v5emb.New(
		"Post Browser",
		"/specs/v1.yaml",
		"/v1/docs/",
	))

	// prometheus metrics server
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle(opts.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// pprof
	r.PathPrefix(controller.PprofPrefix).Handler(controller.PprofMux(controller.PprofPrefix))

	return r
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
// The router is wrapped with CORS and logging middlewares and a request timeout.
func NewServer(deps Deps, opts Options) *http.Server {
	// cors
	handler := controller.WithCORS(NewRouter(deps, opts))

	// logger
	handler = controller.WithLogger(handler)

	if opts.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, opts.RequestTimeout, `{"code":"TIMEOUT","message":"request timed out"}`)
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}
}
