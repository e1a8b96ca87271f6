package job

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/foomo/sitemaps/pkg/metrics"
	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/foomo/sitemaps/responses"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	MessageStopped   = "Stop of job was called."
	MessageSucceeded = "Job successfully executed."
	MessageFailed    = "Job executed with errors."
)

var ErrJobRunning = errors.New("job rejected: another run is in progress")

type (
	// Job generates and persists every configured sitemap
	Job struct {
		l          *zap.Logger
		repository sitemap.Repository
		factory    *sitemap.Factory
		cache      sitemap.Cache
		sites      sitemap.SiteRegistry
		segments   func(language string) string
		running    sync.Mutex
		cancel     context.CancelFunc
		cancelLock sync.Mutex
	}
	Option func(*Job)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, repository sitemap.Repository, factory *sitemap.Factory, cache sitemap.Cache, sites sitemap.SiteRegistry, opts ...Option) *Job {
	inst := &Job{
		l:          l.Named("job"),
		repository: repository,
		factory:    factory,
		cache:      cache,
		sites:      sites,
		segments:   strings.ToLower,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithLanguageSegments maps a language to its url segment in log messages
func WithLanguageSegments(v func(language string) string) Option {
	return func(o *Job) {
		o.segments = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Execute generates all sitemaps and returns a human readable report
func (j *Job) Execute(ctx context.Context) (string, error) {
	res, err := j.Run(ctx)
	return res.Message, err
}

// Run generates the given sitemaps, all of them if no id is passed. Only one
// run is allowed at once.
func (j *Job) Run(ctx context.Context, ids ...string) (*responses.Job, error) {
	res := &responses.Job{
		RunID: uuid.New().String(),
	}
	if !j.running.TryLock() {
		res.Message = ErrJobRunning.Error()
		return res, ErrJobRunning
	}
	defer j.running.Unlock()

	start := time.Now()
	l := j.l.With(zap.String("run_id", res.RunID))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	j.setCancel(cancel)
	defer j.setCancel(nil)

	l.Info("starting generation of sitemaps")
	configs, err := j.configs(ctx, ids)
	if err != nil {
		metrics.JobRunCounter.WithLabelValues("error").Inc()
		res.Message = err.Error()
		return res, err
	}

	j.cache.Remove(sitemap.GenerationKey)
	defer j.cache.Remove(sitemap.GenerationKey)

	var (
		lines []string
		errs  error
	)
	for _, cfg := range configs {
		if ctx.Err() != nil {
			res.Stopped = true
			break
		}
		line, stopped, err := j.generate(ctx, l, cfg)
		if stopped {
			res.Stopped = true
			break
		}
		lines = append(lines, line)
		errs = multierr.Append(errs, err)
	}
	res.Runtime = time.Since(start).Seconds()

	switch {
	case res.Stopped:
		l.Info("job stopped")
		metrics.JobRunCounter.WithLabelValues("stopped").Inc()
		res.Message = MessageStopped
		return res, nil
	case errs != nil:
		l.Error("job executed with errors", zap.Error(errs))
		metrics.JobRunCounter.WithLabelValues("error").Inc()
		res.Message = strings.Join(append([]string{MessageFailed}, lines...), "\n")
		return res, errs
	default:
		l.Info("job successfully executed", zap.Int("sitemaps", len(configs)), zap.Float64("runtime", res.Runtime))
		metrics.JobRunCounter.WithLabelValues("success").Inc()
		res.Success = true
		res.Message = strings.Join(append([]string{MessageSucceeded}, lines...), "\n")
		return res, nil
	}
}

// Stop cancels a running execution, a no-op if there is none
func (j *Job) Stop() {
	j.cancelLock.Lock()
	defer j.cancelLock.Unlock()
	if j.cancel != nil {
		j.l.Info("stop of job was called")
		j.cancel()
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (j *Job) setCancel(v context.CancelFunc) {
	j.cancelLock.Lock()
	defer j.cancelLock.Unlock()
	j.cancel = v
}

// configs loads the requested configs, creating a default one if there is none
func (j *Job) configs(ctx context.Context, ids []string) ([]*sitemap.Config, error) {
	if len(ids) > 0 {
		ret := make([]*sitemap.Config, 0, len(ids))
		for _, id := range ids {
			cfg, err := j.repository.GetByID(ctx, id)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to load sitemap config %q", id)
			}
			ret = append(ret, cfg)
		}
		return ret, nil
	}

	configs, err := j.repository.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sitemap configs")
	}
	if len(configs) > 0 {
		return configs, nil
	}

	cfg := sitemap.NewConfig()
	if sites := j.sites.Sites(ctx); len(sites) > 0 {
		cfg.SiteURL = sites[0].URL
	}
	j.l.Info("no sitemap configured, creating a default one", zap.String("site_url", cfg.SiteURL))
	if err := j.repository.Save(ctx, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to save default sitemap config")
	}
	return j.repository.GetAll(ctx)
}

func (j *Job) generate(ctx context.Context, l *zap.Logger, cfg *sitemap.Config) (line string, stopped bool, err error) {
	name := cfg.URL(j.segments(cfg.PinnedLanguage()))
	l = l.With(zap.String("sitemap", cfg.ID), zap.String("url", name))
	l.Debug("generating sitemap")

	g, err := j.factory.GetGenerator(cfg)
	if err == nil {
		var res sitemap.Result
		res, err = g.Generate(ctx, cfg, true)
		if err == nil {
			if res.Stopped {
				return "", true, nil
			}
			if res.Exceeded {
				l.Warn("sitemap exceeds the maximum entry count", zap.Int("max", sitemap.MaxEntryCount))
			}
			return fmt.Sprintf("%s: Success - %d entries included", name, res.Entries), false, nil
		}
	}
	l.Error("failed to generate sitemap", zap.Error(err))
	return fmt.Sprintf("%s: An error occured while generating sitemap", name), false, errors.Wrapf(err, "sitemap %s", name)
}
