package repo

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/foomo/sitemaps/pkg/metrics"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	json              = jsoniter.ConfigCompatibleWithStandardLibrary
	ErrUpdateRejected = errors.New("update rejected: queue full")
)

type updateResponse struct {
	repoRuntime int64
	err         error
}

func (r *Repo) PollRoutine(ctx context.Context) error {
	l := r.l.Named("routine.poll")
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case <-ticker.C:
			chanReponse := make(chan updateResponse)
			select {
			case r.updateInProgressChannel <- chanReponse:
			case <-ctx.Done():
				return nil
			}
			response := <-chanReponse
			if response.err == nil {
				l.Info("update success", zap.String("revision", r.pollVersion))
			} else {
				l.Error("update failed", zap.Error(response.err))
			}
		}
	}
}

func (r *Repo) UpdateRoutine(ctx context.Context) error {
	l := r.l.Named("routine.update")
	for {
		select {
		case <-ctx.Done():
			l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case resChan := <-r.updateInProgressChannel:
			start := time.Now()
			l := l.With(zap.String("run_id", uuid.New().String()))

			l.Info("update started")

			repoRuntime, err := r.update(context.WithoutCancel(ctx))
			if err != nil {
				l.Error("update failed", zap.Error(err))
				metrics.UpdatesFailedCounter.WithLabelValues().Inc()
			} else {
				if !r.Loaded() {
					r.loaded.Store(true)
					l.Info("initial update success")
					if r.onLoaded != nil {
						r.onLoaded()
					}
				} else {
					l.Info("update success")
				}
				metrics.UpdatesCompletedCounter.WithLabelValues().Inc()
			}

			resChan <- updateResponse{
				repoRuntime: repoRuntime,
				err:         err,
			}

			metrics.UpdateDuration.WithLabelValues().Observe(time.Since(start).Seconds())
		}
	}
}

func (r *Repo) loadExportFromJSON(data []byte) (*Export, error) {
	export := &Export{}
	if err := json.Unmarshal(data, export); err != nil {
		r.l.Error("Failed to deserialize export", zap.Error(err))
		return nil, errors.Wrap(err, "failed to deserialize export")
	}
	return export, nil
}

func (r *Repo) tryToRestoreCurrent(ctx context.Context) error {
	buffer := &bytes.Buffer{}
	if err := r.history.GetCurrent(ctx, buffer); err != nil {
		return err
	}
	if err := r.loadJSONBytes(buffer.Bytes()); err != nil {
		return err
	}
	r.SetJSONBuffer(buffer)
	r.loaded.Store(true)
	return nil
}

func (r *Repo) get(ctx context.Context, url string) (*bytes.Buffer, error) {
	buffer := &bytes.Buffer{}

	if r.isFile() {
		f, err := os.Open(r.filePath())
		if err != nil {
			return nil, errors.Wrap(err, "failed to open export file")
		}
		defer f.Close()
		if _, err := io.Copy(buffer, f); err != nil {
			return nil, errors.Wrap(err, "failed to read export file")
		}
		return buffer, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create get repo request")
	}
	response, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get repo")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, errors.Errorf("bad response code from repository %q want %q", response.Status, http.StatusText(http.StatusOK))
	}

	if _, err := io.Copy(buffer, response.Body); err != nil {
		return nil, errors.Wrap(err, "failed to copy IO stream")
	}
	return buffer, nil
}

func (r *Repo) update(ctx context.Context) (repoRuntime int64, err error) {
	startTimeRepo := time.Now().UnixNano()

	repoURL := r.url
	if r.poll && !r.isFile() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
		if err != nil {
			return repoRuntime, err
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return repoRuntime, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return repoRuntime, errors.New("could not poll latest repo download url - non 200 response")
		}
		responseBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return repoRuntime, errors.New("could not poll latest repo download url, could not read body")
		}
		repoURL = strings.TrimSpace(string(responseBytes))
		if repoURL == r.pollVersion {
			r.l.Info(
				"repo is up to date",
				zap.String("pollVersion", r.pollVersion),
			)
			// already up to date
			return repoRuntime, nil
		}
		r.l.Info(
			"new repo poll version",
			zap.String("pollVersion", repoURL),
		)
	}

	buffer, err := r.get(ctx, repoURL)
	repoRuntime = time.Now().UnixNano() - startTimeRepo
	if err != nil {
		// we have no json to load - the repo server did not reply
		r.l.Debug("failed to load json", zap.Error(err))
		return repoRuntime, err
	}
	r.l.Debug("loading json", zap.String("server", repoURL), zap.Int("length", buffer.Len()))
	if err := r.loadJSONBytes(buffer.Bytes()); err != nil {
		return repoRuntime, err
	}
	r.SetJSONBuffer(buffer)
	if r.poll {
		r.pollVersion = repoURL
	}
	return repoRuntime, nil
}

// limit ressources and allow only one update request at once
func (r *Repo) tryUpdate() (repoRuntime int64, err error) {
	c := make(chan updateResponse)
	select {
	case r.updateInProgressChannel <- c:
		r.l.Debug("update request added to queue")
		ur := <-c
		return ur.repoRuntime, ur.err
	default:
		r.l.Info("update request rejected, another update is in progress")
		return 0, ErrUpdateRejected
	}
}

// loadJSONBytes parses and indexes an export and swaps it in
func (r *Repo) loadJSONBytes(data []byte) error {
	export, err := r.loadExportFromJSON(data)
	if err != nil {
		if len(data) > 10 {
			r.l.Debug("could not parse json",
				zap.String("jsonStart", string(data[:10])),
				zap.String("jsonEnd", string(data[len(data)-10:])),
			)
		}
		return err
	}

	snapshot, err := newSnapshot(export)
	if err != nil {
		return errors.Wrap(err, "failed to load export")
	}
	r.SetSnapshot(snapshot)
	r.l.Debug("loaded snapshot",
		zap.Int("num_nodes", len(snapshot.Directory)),
		zap.Int("num_uris", snapshot.NumberOfURIs),
		zap.Int("num_sites", len(snapshot.Sites)),
	)
	return nil
}
