package main

import (
	"fmt"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "Fetch the proxy list once, validate it and print the live proxies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			bar    *progressbar.ProgressBar
			passed atomic.Int64
		)
		pool := newProxyPool(cfg.Proxy, func(ok bool) {
			if ok {
				passed.Add(1)
			}
			_ = bar.Add(1)
		}, log)

		if err := pool.Refresh(ctx); err != nil {
			return fmt.Errorf("failed to fetch proxy list: %w", err)
		}
		bar = newProgressBar(len(pool.Snapshot()), "validating proxies")
		pool.ValidateAll(ctx)
		_ = bar.Finish()
		pool.Reconcile()

		live := pool.Snapshot()
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d proxies passed the canary check\n", passed.Load(), bar.GetMax())
		for _, p := range live {
			fmt.Fprintln(cmd.OutOrStdout(), p.Addr())
		}
		return nil
	},
}

func newProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
