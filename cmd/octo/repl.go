package main

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/drpcorg/octo"
	"github.com/drpcorg/octo/repl"
	"github.com/drpcorg/octo/store"
)

func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	var doc string
	cmd := &cobra.Command{
		Use:          "repl",
		Short:        "Edit documents of the store interactively",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return err
			}
			return runRepl(cfg, doc)
		},
	}
	cmd.Flags().StringVarP(&doc, "doc", "d", "", "document to open")
	return cmd
}

func registry(s *store.Store) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(octo.Collectors()...)
	reg.MustRegister(store.NewCollector(s.Database()))
	return reg
}

func runRepl(cfg Config, doc string) error {
	opts, err := cfg.DocOptions()
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.Dir, store.Options{Logger: opts.Logger})
	if err != nil {
		return err
	}
	defer s.Close()

	if cfg.Metrics != "" {
		handler := promhttp.HandlerFor(registry(s), promhttp.HandlerOpts{})
		server := &http.Server{Addr: cfg.Metrics, Handler: handler}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				opts.Logger.Error("metrics server failed", "addr", cfg.Metrics, "err", err)
			}
		}()
		defer server.Close()
	}

	r := &repl.REPL{Store: s, Options: opts}
	if err = r.Open(cfg.History); err != nil {
		return err
	}
	defer r.Close()
	if doc != "" {
		if err = r.CommandOpen([]string{doc}); err != nil {
			return err
		}
	}
	return r.Run()
}
