package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mroshb/economy_bot/internal/config"
	"github.com/mroshb/economy_bot/internal/middleware"
	"github.com/mroshb/economy_bot/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandlerManager exposes the economy services over HTTP. It stands in for
// a chat front end: the caller identifies the acting user with the
// X-User-ID header.
type HandlerManager struct {
	Config       *config.Config
	AuctionSvc   *services.AuctionService
	CharacterSvc *services.CharacterService
	RewardSvc    *services.RewardService
	Limiter      *middleware.RateLimiter
	Gatherer     prometheus.Gatherer
}

func NewHandlerManager(
	cfg *config.Config,
	auctionSvc *services.AuctionService,
	characterSvc *services.CharacterService,
	rewardSvc *services.RewardService,
	limiter *middleware.RateLimiter,
	gatherer prometheus.Gatherer,
) *HandlerManager {
	return &HandlerManager{
		Config:       cfg,
		AuctionSvc:   auctionSvc,
		CharacterSvc: characterSvc,
		RewardSvc:    rewardSvc,
		Limiter:      limiter,
		Gatherer:     gatherer,
	}
}

func (h *HandlerManager) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if h.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/guilds/{guildID}", func(r chi.Router) {
		if h.Limiter != nil {
			r.Use(h.Limiter.Handler)
		}
		r.Use(requireUser)

		r.Get("/characters", h.handleListCharacters)
		r.Post("/characters", h.handleRegisterCharacter)
		r.Get("/characters/active", h.handleActiveCharacter)
		r.Post("/characters/{name}/activate", h.handleActivateCharacter)
		r.Post("/characters/{name}/retire", h.handleRetireCharacter)
		r.Post("/spend", h.handleSpend)
		r.Post("/transfers", h.handleTransfer)

		r.Get("/auctions", h.handleListAuctions)
		r.Post("/auctions", h.handleCreateAuction)
		r.Get("/auctions/{auctionID}", h.handleGetAuction)
		r.Post("/auctions/{auctionID}/bids", h.handlePlaceBid)
		r.Post("/auctions/{auctionID}/sell", h.handleSellAuction)
		r.Delete("/auctions/{auctionID}", h.handleDeleteAuction)

		r.Get("/rewards", h.handleRewards)
		r.Post("/rewards/grant", h.handleGrant)
		r.Post("/rewards/consume", h.handleConsume)
		r.Post("/rewards/redeem", h.handleRedeem)
	})

	return r
}
