package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-nmr/internal/config"
	"github.com/cwbudde/algo-nmr/nmr/filter"
	"github.com/cwbudde/algo-nmr/nmr/persist"
	"github.com/cwbudde/algo-nmr/nmr/pipeline"
	"github.com/cwbudde/algo-nmr/nmr/store"
)

type app struct {
	cfgPath string
	cfg     config.Config
	logger  *slog.Logger
	metrics *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "nmrpipe",
		Short:         "Replay and edit NMR filter chains",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Log.Logger(cmd.ErrOrStderr())
			if cfg.Metrics.Enabled {
				a.metrics = prometheus.NewRegistry()
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.reportMetrics(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "YAML configuration file")

	root.AddCommand(
		newKindsCmd(a),
		newReplayCmd(a),
		newApplyCmd(a),
		newConvertCmd(a),
		newStoreCmd(a),
	)
	return root
}

func (a *app) registry() *filter.Registry {
	names := make([]filter.Name, 0, len(a.cfg.Engine.ProtectedKinds))
	for _, n := range a.cfg.Engine.ProtectedKinds {
		names = append(names, filter.Name(n))
	}
	return filter.DefaultRegistry(filter.WithProtected(names...))
}

func (a *app) pipeline() (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithCacheSize(a.cfg.Engine.CacheSize),
		pipeline.WithGroupConcurrency(a.cfg.Engine.GroupConcurrency),
	}
	if a.metrics != nil {
		opts = append(opts, pipeline.WithRegisterer(prometheus.WrapRegistererWith(prometheus.Labels{"service": a.cfg.Metrics.Service}, a.metrics)))
	}
	return pipeline.New(a.registry(), opts...)
}

func (a *app) store() (store.Store, error) {
	return store.Open(store.Config{
		Driver: store.Driver(a.cfg.Store.Driver),
		Path:   a.cfg.Store.Path,
		Logger: a.logger,
	})
}

// reportMetrics logs the collected metric families.
func (a *app) reportMetrics(ctx context.Context) error {
	if a.metrics == nil {
		return nil
	}
	families, err := a.metrics.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		a.logger.InfoContext(ctx, "metric",
			slog.String("name", mf.GetName()),
			slog.Int("series", len(mf.GetMetric())))
	}
	return nil
}

// formatFor picks the explicit format or derives it from the file name.
func formatFor(path, explicit string) (persist.Format, error) {
	if explicit != "" {
		return persist.ParseFormat(explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return persist.FormatYAML, nil
	}
	return persist.FormatJSON, nil
}

func readDocument(path, format string) (persist.Document, error) {
	f, err := formatFor(path, format)
	if err != nil {
		return persist.Document{}, err
	}
	r := os.Stdin
	if path != "-" {
		if r, err = os.Open(path); err != nil {
			return persist.Document{}, err
		}
		defer func() { _ = r.Close() }()
	}
	return persist.Read(r, f)
}

func writeDocument(cmd *cobra.Command, path string, doc persist.Document, format string) error {
	f, err := formatFor(path, format)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		return persist.Write(cmd.OutOrStdout(), doc, f)
	}
	b, err := persist.Marshal(doc, f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
