package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"marketsim/internal/catalog"
	"marketsim/internal/config"
	"marketsim/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Server exposes one local game session over HTTP.
type Server struct {
	cfg     config.APIConfig
	log     *slog.Logger
	game    *game.Service
	events  *eventHub
	replays *replayCache
	mux     *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		game:    gameSvc,
		events:  newEventHub(gameSvc, logger),
		replays: newReplayCache(256),
		mux:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Close drops every event stream subscriber.
func (s *Server) Close() {
	s.events.close()
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/events", s.events.serve)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/catalog", s.handleCatalog)
			r.Get("/state", s.handleState)

			r.Group(func(r chi.Router) {
				r.Use(s.idempotent)
				r.Post("/game/start", s.handleStartGame)
				r.Post("/cheats", s.handleCheat)
				r.Post("/purchases", s.handlePurchase)
				r.Post("/listings", s.handleListing)
				r.Post("/day/end", s.handleEndDay)
				r.Post("/theft/resolve", s.handleResolveTheft)
				r.Post("/day/next", s.handleNextDay)
			})
		})
	})
}

type catalogEntry struct {
	catalog.Product
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	products := s.game.Catalog().Products()
	out := make([]catalogEntry, 0, len(products))
	for _, p := range products {
		out = append(out, catalogEntry{Product: p, SuggestedPrice: p.SuggestedPrice()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

func (s *Server) handleStartGame(w http.ResponseWriter, _ *http.Request) {
	if err := s.game.StartGame(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

func (s *Server) handleCheat(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.game.ApplyCheatCode(in.Code) {
		writeError(w, http.StatusBadRequest, "unknown cheat code")
		return
	}
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cost, err := s.game.Buy(strings.TrimSpace(in.ProductID), in.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cost":  cost,
		"state": s.game.Snapshot(),
	})
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProductID string           `json:"product_id"`
		Quantity  int              `json:"quantity"`
		Price     *decimal.Decimal `json:"price"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(in.ProductID)
	p, ok := s.game.Catalog().Lookup(id)
	if !ok {
		writeDomainError(w, fmt.Errorf("%w: %s", game.ErrUnknownProduct, id))
		return
	}
	price := p.SuggestedPrice()
	if in.Price != nil {
		if !in.Price.IsPositive() {
			writeDomainError(w, game.ErrInvalidPrice)
			return
		}
		price = *in.Price
	}
	listed, err := s.game.ListForSale(id, in.Quantity, price)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"listed": listed,
		"price":  price,
		"state":  s.game.Snapshot(),
	})
}

func (s *Server) handleEndDay(w http.ResponseWriter, _ *http.Request) {
	if err := s.game.EndDay(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.game.Snapshot())
}

func (s *Server) handleResolveTheft(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Choice string `json:"choice"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	choice, err := game.ParseTheftChoice(in.Choice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out, err := s.game.ResolveTheft(choice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outcome": out,
		"state":   s.game.Snapshot(),
	})
}

func (s *Server) handleNextDay(w http.ResponseWriter, _ *http.Request) {
	if err := s.game.StartNewDay(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrPhaseLocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrInvalidQuantity), errors.Is(err, game.ErrInvalidPrice), errors.Is(err, game.ErrInvalidChoice):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrUnknownProduct):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}
