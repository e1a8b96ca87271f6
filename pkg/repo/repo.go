package repo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foomo/sitemaps/pkg/metrics"
	"github.com/foomo/sitemaps/responses"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Repo content repository, loads content exports and answers the queries of
// the sitemap generators from the latest snapshot
type (
	Repo struct {
		l                       *zap.Logger
		url                     string
		poll                    bool
		pollInterval            time.Duration
		pollVersion             string
		watch                   bool
		watchDebounce           time.Duration
		onLoaded                func()
		onUpdated               []func()
		onUpdatedLock           sync.RWMutex
		loaded                  *atomic.Bool
		history                 *History
		httpClient              *http.Client
		updateInProgressChannel chan chan updateResponse
		snapshot                *Snapshot
		snapshotLock            sync.RWMutex
		jsonBuffer              *bytes.Buffer
		jsonBufferLock          sync.RWMutex
	}
	Option func(*Repo)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New url is either an http(s) url or a local file path, optionally prefixed with file://
func New(l *zap.Logger, url string, history *History, opts ...Option) *Repo {
	inst := &Repo{
		l:                       l.Named("repo"),
		url:                     url,
		poll:                    false,
		loaded:                  &atomic.Bool{},
		pollInterval:            time.Minute,
		watchDebounce:           time.Second,
		history:                 history,
		httpClient:              http.DefaultClient,
		updateInProgressChannel: make(chan chan updateResponse),
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Repo) {
		o.httpClient = v
	}
}

// WithPoll the url returns the url of the latest export
func WithPoll(v bool) Option {
	return func(o *Repo) {
		o.poll = v
	}
}

func WithPollInterval(v time.Duration) Option {
	return func(o *Repo) {
		o.pollInterval = v
	}
}

// WithWatch reloads a file source whenever it changes
func WithWatch(v bool) Option {
	return func(o *Repo) {
		o.watch = v
	}
}

func WithWatchDebounce(v time.Duration) Option {
	return func(o *Repo) {
		o.watchDebounce = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (r *Repo) Loaded() bool {
	return r.loaded.Load()
}

// Snapshot latest loaded snapshot, nil before the first load
func (r *Repo) Snapshot() *Snapshot {
	r.snapshotLock.RLock()
	defer r.snapshotLock.RUnlock()
	return r.snapshot
}

func (r *Repo) SetSnapshot(v *Snapshot) {
	r.snapshotLock.Lock()
	r.snapshot = v
	r.snapshotLock.Unlock()

	r.onUpdatedLock.RLock()
	defer r.onUpdatedLock.RUnlock()
	for _, fn := range r.onUpdated {
		fn()
	}
}

func (r *Repo) JSONBufferBytes() []byte {
	r.jsonBufferLock.RLock()
	defer r.jsonBufferLock.RUnlock()
	if r.jsonBuffer == nil {
		return nil
	}
	return r.jsonBuffer.Bytes()
}

func (r *Repo) SetJSONBuffer(v *bytes.Buffer) {
	r.jsonBufferLock.Lock()
	defer r.jsonBufferLock.Unlock()
	r.jsonBuffer = v
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// OnLoaded is called once after the first successful load
func (r *Repo) OnLoaded(fn func()) {
	r.onLoaded = fn
}

// OnUpdated is called whenever a new snapshot replaced the previous one
func (r *Repo) OnUpdated(fn func()) {
	r.onUpdatedLock.Lock()
	defer r.onUpdatedLock.Unlock()
	r.onUpdated = append(r.onUpdated, fn)
}

// WriteExportBytes writes the current export to the provided writer.
// It serves from the in-memory buffer, falling back to storage only when empty.
// The result is wrapped as service response, e.g: {"reply": <exportData>}
func (r *Repo) WriteExportBytes(ctx context.Context, w io.Writer) error {
	data := r.JSONBufferBytes()

	if len(data) == 0 {
		// cold start or not yet loaded
		var buf bytes.Buffer
		if err := r.history.GetCurrent(ctx, &buf); err != nil {
			return fmt.Errorf("failed to read export from storage: %w", err)
		}
		data = buf.Bytes()
	}

	if _, err := w.Write([]byte(`{"reply":`)); err != nil {
		return fmt.Errorf("failed to write export JSON prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export JSON data: %w", err)
	}
	if _, err := w.Write([]byte(`}`)); err != nil {
		return fmt.Errorf("failed to write export JSON suffix: %w", err)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context) (updateResponse *responses.Update) {
	floatSeconds := func(nanoSeconds int64) float64 {
		return float64(nanoSeconds) / float64(1000000000)
	}

	r.l.Info("Update triggered")

	start := time.Now()
	updateRepotime, err := r.tryUpdate()
	updateResponse = &responses.Update{}
	updateResponse.Stats.RepoRuntime = floatSeconds(updateRepotime)

	if err != nil {
		updateResponse.Success = false
		updateResponse.Stats.NumberOfNodes = -1
		updateResponse.Stats.NumberOfURIs = -1
		updateResponse.Stats.NumberOfSites = -1
		updateResponse.Stats.NumberOfLanguages = -1

		// only try to restore if the update failed during processing
		if !errors.Is(err, ErrUpdateRejected) {
			updateResponse.ErrorMessage = err.Error()
			r.l.Error("Failed to update repository", zap.Error(err))

			if r.Loaded() {
				r.l.Info("Keeping the current repository")
			} else if restoreErr := r.tryToRestoreCurrent(ctx); restoreErr != nil {
				r.l.Error("Failed to restore preceding repository version", zap.Error(restoreErr))
			} else {
				r.l.Info("Successfully restored current repository from history")
			}
		}
	} else {
		updateResponse.Success = true
		// persist the currently loaded one
		historyErr := r.history.Add(ctx, r.JSONBufferBytes())
		if historyErr != nil {
			r.l.Error("Could not persist current repo in history", zap.Error(historyErr))
			metrics.HistoryPersistFailedCounter.WithLabelValues().Inc()
		} else {
			r.l.Info("Successfully persisted current repo to history")
		}
		// add some stats
		if s := r.Snapshot(); s != nil {
			updateResponse.Stats.NumberOfNodes = len(s.Directory)
			updateResponse.Stats.NumberOfURIs = s.NumberOfURIs
			updateResponse.Stats.NumberOfSites = len(s.Sites)
			updateResponse.Stats.NumberOfLanguages = len(s.Languages)
		}
	}
	updateResponse.Stats.OwnRuntime = floatSeconds(time.Since(start).Nanoseconds()) - updateResponse.Stats.RepoRuntime
	return updateResponse
}

// Load fetches the export once without the update routine. The current
// export of the history is used if the source is not available.
func (r *Repo) Load(ctx context.Context) error {
	if _, err := r.update(ctx); err != nil {
		if restoreErr := r.tryToRestoreCurrent(ctx); restoreErr != nil {
			return multierr.Append(err, restoreErr)
		}
		r.l.Warn("failed to load export, using the current one from history", zap.Error(err))
		return nil
	}
	if err := r.history.Add(ctx, r.JSONBufferBytes()); err != nil {
		r.l.Warn("could not persist current repo in history", zap.Error(err))
	}
	r.loaded.Store(true)
	return nil
}

func (r *Repo) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	l := r.l.Named("start")

	up := make(chan bool, 1)
	g.Go(func() error {
		l.Debug("starting update routine")
		up <- true
		return r.UpdateRoutine(gCtx)
	})
	l.Debug("waiting for UpdateRoutine")
	<-up

	l.Debug("trying to restore previous repo")
	if err := r.tryToRestoreCurrent(gCtx); errors.Is(err, os.ErrNotExist) {
		l.Info("previous repo content file does not exist")
	} else if err != nil {
		l.Warn("could not restore previous repo content", zap.Error(err))
	} else {
		l.Info("restored previous repo")
	}

	if r.poll && !r.isFile() {
		g.Go(func() error {
			l.Debug("starting poll routine")
			return r.PollRoutine(gCtx)
		})
	}

	if r.watch && r.isFile() {
		g.Go(func() error {
			l.Debug("starting watch routine")
			return r.WatchRoutine(gCtx)
		})
	}

	l.Debug("trying to update initial state")
	if resp := r.Update(gCtx); !resp.Success {
		l.Error("failed to update initial state",
			zap.String("error", resp.ErrorMessage),
			zap.Int("num_nodes", resp.Stats.NumberOfNodes),
			zap.Int("num_uris", resp.Stats.NumberOfURIs),
			zap.Float64("own_runtime", resp.Stats.OwnRuntime),
			zap.Float64("repo_runtime", resp.Stats.RepoRuntime),
		)
	}

	return g.Wait()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (r *Repo) isFile() bool {
	return !strings.HasPrefix(r.url, "http://") && !strings.HasPrefix(r.url, "https://")
}

func (r *Repo) filePath() string {
	return strings.TrimPrefix(r.url, "file://")
}
