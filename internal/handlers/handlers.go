package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/models"
)

// RatingsProvider hands out the currently loaded ratings snapshot. The
// dashboard swaps snapshots behind this interface when the trainer rewrites
// the results file.
type RatingsProvider interface {
	Get() *models.RatingsSnapshot
}

// ReferenceStore serves the item reference table.
type ReferenceStore interface {
	Items(ctx context.Context) ([]models.Item, error)
	Ping(ctx context.Context) error
}

// ResponseCache is the short-TTL response cache for the hot endpoints.
type ResponseCache interface {
	Dashboard(ctx context.Context, name string) ([]byte, bool)
	StoreDashboard(ctx context.Context, name string, body []byte)
	Ping(ctx context.Context) error
}

type Config struct {
	Ratings        RatingsProvider
	Store          ReferenceStore
	Cache          ResponseCache
	AllowedOrigins []string
	Logger         *zap.Logger
}

type Handler struct {
	ratings   RatingsProvider
	store     ReferenceStore
	cache     ResponseCache
	origins   []string
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

func New(cfg Config) *Handler {
	return &Handler{
		ratings:   cfg.Ratings,
		store:     cfg.Store,
		cache:     cfg.Cache,
		origins:   cfg.AllowedOrigins,
		logger:    cfg.Logger.Sugar(),
		validator: validator.New(),
	}
}
