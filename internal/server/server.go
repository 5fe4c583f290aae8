// Package server wires the AniPost components together and serves
// the HTTP surface: liveness plus a small read-only JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/otakuflix/anipost/internal/announce"
	"github.com/otakuflix/anipost/internal/caption"
	"github.com/otakuflix/anipost/internal/catalog"
	"github.com/otakuflix/anipost/internal/config"
	"github.com/otakuflix/anipost/internal/metadata/anilist"
	"github.com/otakuflix/anipost/internal/metadata/anizip"
	"github.com/otakuflix/anipost/internal/metadata/kitsu"
	"github.com/otakuflix/anipost/internal/network"
	"github.com/otakuflix/anipost/internal/resolver"
	"github.com/otakuflix/anipost/internal/session"
	anipostslack "github.com/otakuflix/anipost/internal/slack"
	"github.com/otakuflix/anipost/internal/suggest"
	"github.com/otakuflix/anipost/internal/telegram"
)

// PostResolver matches the resolver's Resolve method.
type PostResolver interface {
	Resolve(ctx context.Context, name string, episode int) (*resolver.Post, error)
}

// Server is the AniPost process: HTTP API, Telegram bot, and the
// optional Slack mirror.
type Server struct {
	config    *config.Config
	store     *session.Store
	bus       *announce.Bus
	catalog   resolver.CatalogSource
	resolver  PostResolver
	router    chi.Router
	bot       *telegram.Bot
	announcer *anipostslack.Announcer // nil if Slack is not configured
	log       *logrus.Entry
}

// New creates a Server with all dependencies.
func New(cfg *config.Config) (*Server, error) {
	cat := catalog.NewClient(cfg.CatalogOwner, cfg.CatalogRepo, cfg.CatalogPath, cfg.CatalogTTL)
	res := resolver.New(
		resolver.Config{
			WatchBaseURL:     cfg.WatchBaseURL,
			DownloadBaseURL:  cfg.DownloadBaseURL,
			PlaceholderImage: cfg.PlaceholderImage,
		},
		cat,
		anilist.NewClient(),
		anizip.NewClient(),
		kitsu.NewClient(),
		network.ValidateImage,
	)

	s := &Server{
		config:   cfg,
		store:    session.NewStore(cfg.SessionTTL),
		bus:      announce.NewBus(),
		catalog:  cat,
		resolver: res,
		log:      logrus.WithField("component", "server"),
	}
	s.router = s.buildRouter()

	bot, err := telegram.NewBot(cfg.TelegramBotToken, s.store, cat, res, s.bus, telegram.Options{
		WelcomeImage:    cfg.WelcomeImage,
		JoinURL:         cfg.JoinURL,
		ChannelTag:      cfg.ChannelTag,
		SuggestionLimit: suggest.DefaultLimit,
	})
	if err != nil {
		return nil, err
	}
	s.bot = bot

	if cfg.SlackEnabled() {
		s.announcer = anipostslack.NewAnnouncer(cfg.SlackBotToken, cfg.SlackChannel, s.bus)
		s.log.Info("Slack announcer enabled")
	}

	return s, nil
}

// Start runs the HTTP server and background loops. Blocks until ctx
// is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.store.StartJanitor(ctx, time.Minute)

	go func() {
		if err := s.bot.Run(ctx); err != nil {
			s.log.WithError(err).Error("Telegram bot stopped")
		}
	}()

	if s.announcer != nil {
		go func() {
			if err := s.announcer.Run(ctx); err != nil {
				s.log.WithError(err).Error("Slack announcer stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:    s.config.ServerAddr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Infof("AniPost server listening on %s", s.config.ServerAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Router returns the HTTP router (exposed for tests).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Route("/api", func(r chi.Router) {
		r.Get("/suggest", s.handleSuggest)
		r.Get("/preview", s.handlePreview)
		r.Get("/sessions", s.handleListSessions)
	})

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return r
}

// --- Response types ---

type suggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

type previewResponse struct {
	Caption     string `json:"caption"`
	ImageURL    string `json:"image_url"`
	WatchURL    string `json:"watch_url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// --- Handlers ---

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	cat, err := s.catalog.Fetch(r.Context())
	if err != nil {
		s.log.WithError(err).Error("catalog fetch failed")
		writeError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	writeJSON(w, http.StatusOK, suggestResponse{
		Query:       q,
		Suggestions: suggest.Suggest(q, cat.Names(), suggest.DefaultLimit),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	episode, err := strconv.Atoi(r.URL.Query().Get("episode"))
	if err != nil || episode < 1 {
		writeError(w, http.StatusBadRequest, "episode must be a positive number")
		return
	}
	style := caption.StyleWatch
	if r.URL.Query().Get("style") == string(caption.StyleDownload) {
		style = caption.StyleDownload
	}

	post, err := s.resolver.Resolve(r.Context(), name, episode)
	if err != nil {
		var notFound *resolver.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, notFound.Error())
			return
		}
		s.log.WithError(err).Error("preview resolution failed")
		writeError(w, http.StatusBadGateway, "resolution failed")
		return
	}

	text := caption.Format(caption.Data{
		Title:      post.Title,
		Season:     post.Season,
		Episode:    post.Episode,
		Rating:     post.Rating,
		Synopsis:   post.Synopsis,
		Airing:     post.Airing,
		Genres:     post.Genres,
		ChannelTag: s.config.ChannelTag,
	}, style)

	writeJSON(w, http.StatusOK, previewResponse{
		Caption:     text,
		ImageURL:    post.ImageURL,
		WatchURL:    post.WatchURL,
		DownloadURL: post.DownloadURL,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.Active()
	if sessions == nil {
		sessions = []session.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
