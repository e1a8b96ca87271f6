package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	httputils "github.com/foomo/keel/utils/net/http"
	"github.com/foomo/sitemaps/pkg/job"
	"github.com/foomo/sitemaps/pkg/metrics"
	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/foomo/sitemaps/requests"
	"github.com/foomo/sitemaps/responses"
	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Content the content repository as seen by the admin api
	Content interface {
		Update(ctx context.Context) *responses.Update
		WriteExportBytes(ctx context.Context, w io.Writer) error
	}
	// HTTP admin json api
	HTTP struct {
		l          *zap.Logger
		path       string
		repository sitemap.Repository
		job        *job.Job
		content    Content
		segments   func(language string) string
		router     chi.Router
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns the admin api
func NewHTTP(l *zap.Logger, repository sitemap.Repository, j *job.Job, content Content, opts ...HTTPOption) *HTTP {
	inst := &HTTP{
		l:          l.Named("http"),
		path:       "/sitemaps",
		repository: repository,
		job:        j,
		content:    content,
		segments:   strings.ToLower,
	}

	for _, opt := range opts {
		opt(inst)
	}

	inst.router = chi.NewRouter()
	inst.Routes(inst.router)

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithPath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = v
	}
}

// WithLanguageSegments maps a language to its url segment in listed urls
func WithLanguageSegments(v func(language string) string) HTTPOption {
	return func(o *HTTP) {
		o.segments = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (h *HTTP) Path() string {
	return h.path
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Routes registers the admin routes below the api path
func (h *HTTP) Routes(r chi.Router) {
	r.Route(h.path, func(r chi.Router) {
		r.Get("/configs", h.handle(RouteGetConfigs, h.getConfigs))
		r.Put("/configs", h.handle(RouteSaveConfig, h.saveConfig))
		r.Delete("/configs/{id}", h.handle(RouteDeleteConfig, h.deleteConfig))
		r.Post("/generate", h.handle(RouteGenerate, h.generate))
		r.Post("/stop", h.handle(RouteStop, h.stop))
		r.Post("/update", h.handle(RouteUpdate, h.update))
		r.Get("/content", h.getContent)
	})
}

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

type apiFunc func(r *http.Request, body []byte) (reply any, status int, err error)

// handle reads the body, runs fn and wraps its reply
func (h *HTTP) handle(route Route, fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := http.StatusOK

		defer func() {
			metrics.ServiceRequestCounter.WithLabelValues(string(route), strconv.Itoa(status)).Inc()
			metrics.ServiceRequestDuration.WithLabelValues(string(route), strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		}()

		var body []byte
		if r.Body != nil {
			var err error
			if body, err = io.ReadAll(r.Body); err != nil {
				status = http.StatusBadRequest
				httputils.BadRequestServerError(h.l, w, r, errors.Wrap(err, "failed to read incoming request"))
				return
			}
		}

		reply, code, err := fn(r, body)
		if code != 0 {
			status = code
		}
		if err != nil {
			if status == http.StatusOK {
				status = http.StatusInternalServerError
			}
			h.l.Error("an API error occurred", zap.String("route", string(route)), zap.Error(err))
			reply = responses.NewError(status, errorCode(status), err.Error())
		}

		bytes, err := h.encodeReply(reply)
		if err != nil {
			status = http.StatusInternalServerError
			httputils.ServerError(h.l, w, r, status, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(bytes)
	}
}

func (h *HTTP) getConfigs(r *http.Request, _ []byte) (any, int, error) {
	configs, err := h.repository.GetAll(r.Context())
	if err != nil {
		return nil, 0, err
	}
	reply := &responses.Configs{Configs: make([]*responses.Config, 0, len(configs))}
	for _, cfg := range configs {
		item := &responses.Config{
			Config: cfg,
			URL:    cfg.URL(h.segments(cfg.PinnedLanguage())),
		}
		if full, err := h.repository.GetByID(r.Context(), cfg.ID); err == nil {
			item.Size = len(full.Data)
		}
		reply.Configs = append(reply.Configs, item)
	}
	return reply, 0, nil
}

func (h *HTTP) saveConfig(r *http.Request, body []byte) (any, int, error) {
	req := requests.NewConfig()
	if err := json.Unmarshal(body, req); err != nil {
		return nil, http.StatusBadRequest, errors.Wrap(err, "could not read incoming json")
	}
	cfg := req.ToConfig()
	if err := h.repository.Save(r.Context(), cfg); err != nil {
		return nil, 0, err
	}
	return &responses.Config{
		Config: cfg,
		URL:    cfg.URL(h.segments(cfg.PinnedLanguage())),
	}, 0, nil
}

func (h *HTTP) deleteConfig(r *http.Request, _ []byte) (any, int, error) {
	id := chi.URLParam(r, "id")
	if err := h.repository.Delete(r.Context(), id); errors.Is(err, sitemap.ErrNotFound) {
		return nil, http.StatusNotFound, err
	} else if err != nil {
		return nil, 0, err
	}
	return true, 0, nil
}

func (h *HTTP) generate(r *http.Request, body []byte) (any, int, error) {
	req := &requests.Generate{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, req); err != nil {
			return nil, http.StatusBadRequest, errors.Wrap(err, "could not read incoming json")
		}
	}
	// the run outlives the request
	reply, err := h.job.Run(context.WithoutCancel(r.Context()), req.IDs...)
	switch {
	case errors.Is(err, job.ErrJobRunning):
		return reply, http.StatusConflict, nil
	case errors.Is(err, sitemap.ErrNotFound):
		return nil, http.StatusNotFound, err
	}
	// failures of single sitemaps are part of the reply
	return reply, 0, nil
}

func (h *HTTP) stop(_ *http.Request, _ []byte) (any, int, error) {
	h.job.Stop()
	return true, 0, nil
}

func (h *HTTP) update(r *http.Request, body []byte) (any, int, error) {
	req := &requests.Update{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, req); err != nil {
			return nil, http.StatusBadRequest, errors.Wrap(err, "could not read incoming json")
		}
	}
	return h.content.Update(r.Context()), 0, nil
}

func (h *HTTP) getContent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.ServiceRequestCounter.WithLabelValues(string(RouteGetContent), strconv.Itoa(status)).Inc()
		metrics.ServiceRequestDuration.WithLabelValues(string(RouteGetContent), strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	}()

	w.Header().Set("Content-Type", "application/json")
	if err := h.content.WriteExportBytes(r.Context(), w); err != nil {
		status = http.StatusInternalServerError
		h.l.Error("failed to write content export", zap.Error(err))
	}
}

// errorCode 2 for broken requests, 3 for everything else
func errorCode(status int) int {
	if status == http.StatusBadRequest {
		return 2
	}
	return 3
}

// encodeReply takes an interface and encodes it as JSON
// it returns the resulting JSON and a marshalling error
func (h *HTTP) encodeReply(reply any) (bytes []byte, err error) {
	bytes, err = json.Marshal(map[string]any{
		"reply": reply,
	})
	if err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
	}
	return
}
