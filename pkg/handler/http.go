package handler

import (
	"bytes"
	"net/http"
	"time"

	httputils "github.com/foomo/keel/utils/net/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spursup/feedserver/pkg/feed"
	"github.com/spursup/feedserver/pkg/metrics"
	"github.com/spursup/feedserver/pkg/repo"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTitle = "South Carolina Gamecocks — Football Feed"

// CollectTokenHeader carries the shared secret that guards POST /collect
const CollectTokenHeader = "X-Collect-Token"

type (
	HTTP struct {
		l            *zap.Logger
		repo         *repo.Repo
		mux          *http.ServeMux
		title        string
		collectToken string
		staticDir    string
		links        []feed.StaticLink
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns the web surface of the feed server
func NewHTTP(l *zap.Logger, r *repo.Repo, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:         l.Named("http"),
		repo:      r,
		title:     defaultTitle,
		staticDir: "static",
		links:     feed.DefaultStaticLinks(),
	}

	for _, opt := range opts {
		opt(inst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", inst.instrument("index", inst.index))
	mux.HandleFunc("GET /items.json", inst.instrument("items", inst.items))
	mux.HandleFunc("GET /health", inst.instrument("health", inst.health))
	mux.HandleFunc("POST /collect", inst.instrument("collect", inst.collect))
	mux.HandleFunc("GET /fight-song", inst.instrument("fightSong", inst.fightSong))
	if inst.staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(inst.staticDir))))
	}
	inst.mux = mux

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithTitle(v string) HTTPOption {
	return func(o *HTTP) {
		o.title = v
	}
}

// WithCollectToken guards POST /collect with a shared secret, empty disables
// the guard.
func WithCollectToken(v string) HTTPOption {
	return func(o *HTTP) {
		o.collectToken = v
	}
}

// WithStaticDir sets the directory served under /static/, empty disables
// static file serving.
func WithStaticDir(v string) HTTPOption {
	return func(o *HTTP) {
		o.staticDir = v
	}
}

func WithStaticLinks(v []feed.StaticLink) HTTPOption {
	return func(o *HTTP) {
		o.links = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) index(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Title: h.title,
		Links: h.links,
		Feeds: h.repo.Feeds(),
	}
	if s := h.repo.Snapshot(); s != nil {
		data.Updated = s.Updated
		data.Items = s.Items
	}
	h.render(w, r, "index.html", data)
}

func (h *HTTP) items(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := h.repo.WriteItemsJSON(r.Context(), w); err != nil {
		h.l.Error("failed to write items", zap.Error(err))
	}
}

func (h *HTTP) health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{OK: true}
	if s := h.repo.Snapshot(); s != nil {
		response.Updated = &s.Updated
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *HTTP) collect(w http.ResponseWriter, r *http.Request) {
	if h.collectToken != "" && r.Header.Get(CollectTokenHeader) != h.collectToken {
		httputils.ServerError(h.l, w, r, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	result := h.repo.Update(r.Context())
	switch {
	case result.Rejected:
		h.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "collection already in progress",
		})
	case !result.Success:
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: result.ErrorMessage,
		})
	default:
		h.writeJSON(w, http.StatusOK, CollectResponse{
			OK:      true,
			Count:   result.Stats.NumberOfItems,
			Updated: result.Updated,
			Stats:   result.Stats,
		})
	}
}

func (h *HTTP) fightSong(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "fight_song.html", fightSongData{
		Title: "South Carolina Gamecocks — Fight Song",
	})
}

// render executes a template into a buffer first so a template error never
// produces a half-written page.
func (h *HTTP) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		httputils.ServerError(h.l, w, r, http.StatusInternalServerError, errors.Wrapf(err, "failed to render %s", name))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// instrument wraps a handler func with request metrics
func (h *HTTP) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		result := "success"
		if rec.status >= http.StatusBadRequest {
			result = "error"
		}
		metrics.ServiceRequestCounter.WithLabelValues(name, result).Inc()
		metrics.ServiceRequestDuration.WithLabelValues(name, result).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}
