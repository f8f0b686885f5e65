package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/itsDrac/gemstone-auction/internal/handlers"
	authmw "github.com/itsDrac/gemstone-auction/internal/middleware"
	"github.com/itsDrac/gemstone-auction/pkg/config"
)

func (s *Server) routes() *chi.Mux {
	mux := chi.NewMux()
	deps := s.Dependencies

	// global middlewares
	mux.Use(middleware.RequestID)
	mux.Use(s.LoggerMiddleware())
	mux.Use(middleware.Recoverer)

	mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthCheck)

		if deps.AuthHandler != nil {
			r.Post("/auth/operator/login", deps.AuthHandler.LoginOperator)
		}

		r.Route("/auctions", func(ar chi.Router) {
			ar.Get("/", deps.AuctionHandler.ListAuctions)
			ar.Get("/{auctionId}", deps.AuctionHandler.GetAuction)
			ar.Get("/{auctionId}/bids", deps.AuctionHandler.ListBids)
			ar.Post("/{auctionId}/bids", deps.AuctionHandler.PlaceBid)
			ar.Get("/{auctionId}/live", deps.LiveHandler.Stream)
			ar.Post("/{auctionId}/watchers", deps.AuctionHandler.Watch)
			ar.Delete("/{auctionId}/watchers/{userId}", deps.AuctionHandler.Unwatch)

			// operator routes
			ar.Group(func(or chi.Router) {
				if deps.Jwt == nil {
					or.Use(operatorDisabled)
				} else {
					or.Use(authmw.AuthMiddleware(deps.Jwt))
					or.Use(authmw.RequireRole(config.RoleOperator))
				}
				or.Post("/", deps.AdminHandler.CreateAuction)
				or.Post("/upload-images", deps.AdminHandler.UploadImages)
				or.Delete("/images/{imageKey}", deps.AdminHandler.DiscardImage)
				or.Put("/{auctionId}", deps.AdminHandler.UpdateStatus)
				or.Post("/{auctionId}/close", deps.AdminHandler.CloseAuction)
			})
		})
	})

	return mux
}

func operatorDisabled(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondErrorJSON(w, r, http.StatusUnauthorized, handlers.ErrAuthFailed.Error(), "operator access is not configured", nil)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"message": "ok",
		"time":    time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(resp)
}
