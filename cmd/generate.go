package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/foomo/keel/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewGenerateCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "generate <url> [id...]",
		Short: "Generate and store sitemaps once",
		Long:  "Loads the content export, generates the given sitemaps (all if none is given) and stores them in the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			l := log.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := newEngine(ctx, l, v, args[0])
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := e.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			if err := e.repo.Load(ctx); err != nil {
				return fmt.Errorf("failed to load content: %w", err)
			}

			res, err := e.job.Run(ctx, args[1:]...)
			l.Info("generation finished",
				zap.String("run_id", res.RunID),
				zap.Bool("success", res.Success),
				zap.Bool("stopped", res.Stopped),
				zap.Float64("runtime", res.Runtime),
			)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return err
		},
	}

	addEngineFlags(cmd.Flags(), v)

	return cmd
}
