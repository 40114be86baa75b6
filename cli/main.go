package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeafMist/intel-radar/backend/internal/app"
	"github.com/DeafMist/intel-radar/backend/internal/config"
	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

type digester interface {
	Run(ctx context.Context, query string) models.Response
}

// buildFunc assembles the pipeline; the returned func releases it.
type buildFunc func(ctx context.Context) (digester, func(), error)

var errQueryFailed = errors.New("query failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd(buildPipeline).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func buildPipeline(ctx context.Context) (digester, func(), error) {
	log := logger.NewWithWriter("cli", os.Stderr)
	cfg, err := config.LoadServices()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	deps, err := app.Build(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return deps.Controller, func() { _ = deps.Close() }, nil
}

func newRootCmd(build buildFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "intel-radar",
		Short:         "Competitive intelligence digests from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newQueryCmd(build))
	return root
}

func newQueryCmd(build buildFunc) *cobra.Command {
	var (
		format  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run one query through the digest pipeline",
		Example: `  intel-radar query "latest Rivian pricing news"
  intel-radar query --format json "BYD expansion in Europe"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("--format must be text or json, got %q", format)
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			digest, release, err := build(ctx)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
				return err
			}
			defer release()

			resp := digest.Run(ctx, strings.Join(args, " "))
			if err := render(cmd.OutOrStdout(), format, resp); err != nil {
				return err
			}
			if resp.Status == models.StatusError {
				return errQueryFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the query")
	return cmd
}
