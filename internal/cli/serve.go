package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/molgrid/pkg/observability/prom"
	"github.com/matzehuels/molgrid/pkg/pipeline"
	"github.com/matzehuels/molgrid/pkg/server"
)

// defaultAddr is the listen address when neither --addr nor the config
// file names one.
const defaultAddr = "127.0.0.1:8080"

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	maxBody int64
	noCache bool
}

// serveCommand creates the serve command that exposes rendering over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render API over HTTP",
		Long: `Serve the render API over HTTP.

POST structures to /v1/render and receive the image. Write options go in
repeated "opt" query parameters, e.g. /v1/render?opt=c=3&opt=t&format=jpg.
Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default "+defaultAddr+")")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", 0, "maximum request body in bytes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the image cache")

	return cmd
}

// runServe starts the HTTP server and blocks until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)
	cfg := c.settings()

	defaults, err := c.defaultOptions()
	if err != nil {
		return err
	}
	format := cfg.Render.Format
	if format == "" {
		format = pipeline.DefaultFormat
	}

	reg := newRegistry()
	prom.NewHooks(reg).Register()

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithDefaults(defaults),
		server.WithDefaultFormat(format),
		server.WithGatherer(reg),
	}
	if n := firstNonZero(opts.maxBody, cfg.Server.MaxBodyBytes); n > 0 {
		serverOpts = append(serverOpts, server.WithMaxBodyBytes(n))
	}

	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if addr == "" {
		addr = defaultAddr
	}

	printInfo("Listening on %s", StyleLink.Render("http://"+addr))
	printDetail("POST /v1/render · GET /healthz · GET /metrics")
	return server.New(runner, serverOpts...).ListenAndServe(ctx, addr)
}

// newRegistry returns a registry with the Go runtime and process collectors.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func firstNonZero(vals ...int64) int64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
