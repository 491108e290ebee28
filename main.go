package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/hhhapz/uksidoc/legislation"
	"github.com/hhhapz/uksidoc/render"
)

var (
	configPath string
	verbose    bool

	cfg    configuration
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "uksidoc",
	Short: "Browse the contents of a UK statutory instrument",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = loadConfig(configPath)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the contents page over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch, parse and print the contents once",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "uksidoc.toml", "path to the TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	fetchCmd.Flags().String("url", "", "document URL (overrides source.url)")
	fetchCmd.Flags().Bool("json", false, "print the document as JSON")

	rootCmd.AddCommand(serveCmd, fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newFetcher(c sourceConfig, log *zap.Logger) *legislation.HTTPFetcher {
	f := legislation.NewHTTPFetcher(&http.Client{Timeout: c.Timeout.Duration}, log)
	if c.UserAgent != "" {
		f.UserAgent = c.UserAgent
	}
	if c.MaxBytes > 0 {
		f.MaxBytes = c.MaxBytes
	}
	return f
}

func runServe(cmd *cobra.Command, _ []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	renderer, err := render.New()
	if err != nil {
		return errors.Wrap(err, "could not load templates")
	}

	fetcher := newFetcher(cfg.Source, logger)
	s := &server{
		url:      cfg.Source.URL,
		fetcher:  fetcher,
		renderer: renderer,
		log:      logger.Named("http"),
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return errors.Wrap(err, "could not listen")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serveHTTP(ctx, ln, s.routes(), s.log)
	})
	if cfg.Discord.Token != "" {
		bot := newBot(cfg.Discord.Token, cfg.Source.URL, fetcher, logger)
		g.Go(func() error {
			return bot.run(ctx)
		})
	} else {
		logger.Info("no discord token configured, skipping bot")
	}

	return g.Wait()
}

func runFetch(cmd *cobra.Command, _ []string) error {
	url := cfg.Source.URL
	if u, _ := cmd.Flags().GetString("url"); u != "" {
		url = u
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	doc, err := legislation.Load(cmd.Context(), newFetcher(cfg.Source, logger), url, logger)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	return printDocument(cmd.OutOrStdout(), doc)
}

func printDocument(w io.Writer, doc legislation.Document) error {
	p := &errWriter{w: w}
	p.printf("%s\n\n%s\n\n", doc.Title, doc.Description)
	p.printf("Made:              %s\n", render.LongDate(doc.MadeDate))
	p.printf("Coming into force: %s\n\n", render.LongDate(doc.ComingIntoForce))
	p.printf("Contents (%s items)\n", humanize.Comma(int64(len(doc.Items))))
	for _, item := range doc.Items {
		p.printf("  %-12s %s", item.Number, item.Title)
		if item.Link != nil {
			p.printf("\n  %-12s %s", "", *item.Link)
		}
		p.printf("\n")
	}
	return p.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (p *errWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
