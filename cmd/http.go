package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/foomo/sitemaps/content"
	"github.com/foomo/sitemaps/pkg/handler"
	"github.com/foomo/sitemaps/pkg/job"
	"github.com/foomo/sitemaps/pkg/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewHTTPCommand() *cobra.Command {
	v := newViper()
	service.DefaultHTTPPProfAddr = ":6060"

	cmd := &cobra.Command{
		Use:   "http <url>",
		Short: "Start http server",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var comps []string
			if len(args) == 0 {
				comps = cobra.AppendActiveHelp(comps, "You must specify the URL or file of the content export")
			} else {
				comps = cobra.AppendActiveHelp(comps, "This command does not take any more arguments")
			}
			return comps, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithGracefulPeriod(gracefulPeriodFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
				keel.WithHTTPPProfService(servicePProfEnabledFlag(v)),
			)

			l := svr.Logger()

			e, err := newEngine(cmd.Context(), l, v, args[0])
			if err != nil {
				return err
			}

			// crawler entries live until the content changes
			e.repo.OnUpdated(func() {
				e.cache.Remove(content.VersionKey)
			})

			isLoadedHealtherFn := healthz.NewHealthzerFn(func(ctx context.Context) error {
				if !e.repo.Loaded() {
					return errors.New("repo not loaded yet")
				}
				return nil
			})
			svr.AddStartupHealthzers(isLoadedHealtherFn)
			svr.AddReadinessHealthzers(isLoadedHealtherFn)

			svr.AddClosers(e.Close)

			admin := handler.NewHTTP(l.Named("inst.handler"), e.store, e.job, e.repo,
				handler.WithPath(basePathFlag(v)),
				handler.WithLanguageSegments(e.repo.LanguageSegment),
			)
			sitemaps := handler.NewSitemap(l.Named("inst.handler"), e.store, e.factory, e.cache,
				handler.SitemapWithRealTime(realTimeFlag(v)),
				handler.SitemapWithRealTimeCaching(realTimeCachingFlag(v)),
				handler.SitemapWithLanguageSegments(e.repo.LanguageSegment),
			)
			l.Info("serving sitemaps",
				zap.String("admin_path", admin.Path()),
				zap.Bool("realtime", realTimeFlag(v)),
			)

			svr.AddServices(
				service.NewGoRoutine(l.Named("go.repo"), "repo", func(ctx context.Context, l *zap.Logger) error {
					return e.repo.Start(ctx)
				}),
				service.NewGoRoutine(l.Named("go.cache"), "cache", func(ctx context.Context, l *zap.Logger) error {
					return e.cache.Start(ctx)
				}),
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewRouter(sitemaps, admin),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.GZip(middleware.GZipWithLevel(gzipLevelFlag(v))),
					middleware.Recover(),
				),
			)

			if interval := jobIntervalFlag(v); interval > 0 {
				svr.AddService(
					service.NewGoRoutine(l.Named("go.scheduler"), "scheduler", func(ctx context.Context, l *zap.Logger) error {
						if err := waitLoaded(ctx, e.repo); err != nil {
							return nil //nolint:nilerr
						}
						return job.NewScheduler(l, e.job, interval,
							job.SchedulerWithRunOnStart(jobOnStartFlag(v)),
						).Start(ctx)
					}),
				)
			}

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v)
	addBasePathFlag(flags, v)
	addEngineFlags(flags, v)
	addRealTimeFlag(flags, v)
	addRealTimeCachingFlag(flags, v)
	addJobIntervalFlag(flags, v)
	addJobOnStartFlag(flags, v)
	addGracefulPeriodFlag(flags, v)
	addOtelEnabledFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)
	addServicePProfEnabledFlag(flags, v)
	addGzipLevelFlag(flags, v)

	return cmd
}

// waitLoaded blocks until the first content export is loaded
func waitLoaded(ctx context.Context, r *repo.Repo) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for !r.Loaded() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("content not loaded: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}
