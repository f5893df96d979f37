package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/listing-monitor/internal/usecase"
)

var targetTitle string

var addTargetCmd = &cobra.Command{
	Use:   "add-target <search-url>",
	Short: "Store a search page to monitor",
	Long: `Stores a search page to monitor. The ordering parameter of the URL is rewritten
so that newest listings come first. A running monitor picks the target up on its
next pass when Redis is enabled, or on restart otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, closeFn, err := openTargetService(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		target, err := svc.Add(ctx, args[0], targetTitle)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added target %d: %s\n", target.ID, target.URL)
		return nil
	},
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List monitored search pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, closeFn, err := openTargetService(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		list, err := svc.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tLAST CHECKED\tURL")
		for _, t := range list {
			checked := "never"
			if t.LastUpdated != nil {
				checked = t.LastUpdated.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Title, checked, t.URL)
		}
		return w.Flush()
	},
}

func init() {
	addTargetCmd.Flags().StringVarP(&targetTitle, "title", "t", "", "human readable name (default: the URL)")
}

func openTargetService(ctx context.Context) (usecase.TargetService, func(), error) {
	store, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	caches, err := openCache(ctx, cfg.Redis, log)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	svc := usecase.NewTargetService(targetConfig(cfg.Monitor), store, caches.announcer, log)
	return svc, func() {
		caches.close()
		store.Close()
	}, nil
}
