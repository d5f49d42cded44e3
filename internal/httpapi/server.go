package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spotwindow/spotwindow/internal/engine"
	"github.com/spotwindow/spotwindow/internal/notify"
	"github.com/spotwindow/spotwindow/internal/store"
)

// PriceSource supplies raw price points; implemented by prices.Client
// and by fakes in tests
type PriceSource interface {
	Day(ctx context.Context, region engine.Region, day time.Time) ([]engine.PricePoint, error)
	TodayAndTomorrow(ctx context.Context, region engine.Region, now time.Time) ([]engine.PricePoint, error)
}

type Server struct {
	store  *store.Store
	source PriceSource
	now    func() time.Time
}

// NewServer wires the API around a store and a price source. The clock
// defaults to time.Now and is overridable for tests.
func NewServer(st *store.Store, source PriceSource) *Server {
	return &Server{
		store:  st,
		source: source,
		now:    time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/prices", s.handleGetPrices)
		r.Post("/search", s.handleSearch)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
		r.Get("/subscriptions", s.handleListSubscriptions)
		r.Post("/subscriptions", s.handleCreateSubscription)
		r.Delete("/subscriptions/{id}", s.handleDeleteSubscription)
		r.Post("/notifications/evaluate", s.handleEvaluateNotifications)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetSettings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"region": cfg.Region,
	})
}

// fetchPoints pulls today+tomorrow from the source and refreshes the
// cache; on fetch failure it falls back to cached days.
func (s *Server) fetchPoints(ctx context.Context, region engine.Region) ([]engine.PricePoint, error) {
	now := s.now()
	points, err := s.source.TodayAndTomorrow(ctx, region, now)
	if err == nil {
		byDay := map[time.Time][]engine.PricePoint{}
		for _, p := range points {
			day := time.Date(p.Start.Year(), p.Start.Month(), p.Start.Day(), 0, 0, 0, 0, time.UTC)
			byDay[day] = append(byDay[day], p)
		}
		for day, dayPoints := range byDay {
			s.store.CachePrices(region, day, dayPoints)
		}
		return points, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cached, cacheErr := s.store.CachedPrices(region, today)
	if cacheErr != nil {
		return nil, err
	}
	if tomorrow, tomorrowErr := s.store.CachedPrices(region, today.Add(24*time.Hour)); tomorrowErr == nil {
		cached = append(cached, tomorrow...)
	}
	return cached, nil
}

func (s *Server) handleGetPrices(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetSettings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	region := cfg.Region
	if q := r.URL.Query().Get("region"); q != "" {
		region = engine.Region(q)
	}
	if !region.Valid() {
		respondError(w, http.StatusBadRequest, "unknown region")
		return
	}

	points, err := s.fetchPoints(r.Context(), region)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to fetch prices: "+err.Error())
		return
	}

	series, err := engine.NewSeries(points, s.now())
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	lo, hi, _ := series.MinMax(cfg.VATEnabled, region)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"points":    series.Points(),
		"min_price": engine.RoundPrice(lo),
		"max_price": engine.RoundPrice(hi),
	})
}

// SearchRequest is the wire form of an engine request; zero-valued
// fields fall back to stored settings
type SearchRequest struct {
	Mode            engine.Mode  `json:"mode"`
	DurationMinutes int          `json:"duration_minutes"`
	EnergyKWh       float64      `json:"energy_kwh"`
	PowerKW         float64      `json:"power_kw"`
	Scope           engine.Scope `json:"scope"`
	VATEnabled      *bool        `json:"vat_enabled"`
	Region          string       `json:"region"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.store.GetSettings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	req := engine.Request{
		Mode:       body.Mode,
		Duration:   time.Duration(body.DurationMinutes) * time.Minute,
		EnergyKWh:  body.EnergyKWh,
		PowerKW:    body.PowerKW,
		Scope:      body.Scope,
		VATEnabled: cfg.VATEnabled,
		Region:     cfg.Region,
	}
	if body.VATEnabled != nil {
		req.VATEnabled = *body.VATEnabled
	}
	if body.Region != "" {
		req.Region = engine.Region(body.Region)
	}
	if body.Mode == "" {
		req.Mode = engine.ModeDuration
	}
	if req.Mode == engine.ModeEnergy && req.PowerKW == 0 {
		req.PowerKW = cfg.PowerKW
	}
	if !req.Region.Valid() {
		respondError(w, http.StatusBadRequest, "unknown region")
		return
	}

	points, err := s.fetchPoints(r.Context(), req.Region)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to fetch prices: "+err.Error())
		return
	}

	now := s.now()
	series, err := engine.NewSeries(points, now)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	res, err := engine.CheapestWindow(series, req, now)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	// Remember the last used inputs the way the client app does.
	cfg.LastDuration = res.End.Sub(res.Start)
	if req.Mode == engine.ModeEnergy {
		cfg.LastEnergyKWh = req.EnergyKWh
		cfg.PowerKW = req.PowerKW
	}
	s.store.SaveSettings(cfg)

	respondJSON(w, http.StatusOK, engine.Summarize(res, req))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetSettings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var cfg store.Settings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !cfg.Region.Valid() {
		respondError(w, http.StatusBadRequest, "unknown region")
		return
	}
	if err := s.store.SaveSettings(cfg); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	region := engine.Region(r.URL.Query().Get("region"))
	if region == "" {
		cfg, err := s.store.GetSettings()
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		region = cfg.Region
	}
	subs, err := s.store.Subscriptions(region)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

type subscriptionRequest struct {
	Region     string  `json:"region"`
	Threshold  float64 `json:"threshold"`
	VATEnabled bool    `json:"vat_enabled"`
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var body subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	region := engine.Region(body.Region)
	if !region.Valid() {
		respondError(w, http.StatusBadRequest, "unknown region")
		return
	}

	sub, err := s.store.AddSubscription(region, body.Threshold, body.VATEnabled)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteSubscription(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": id})
}

func (s *Server) handleEvaluateNotifications(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)

	all := []notify.Payload{}
	for _, region := range []engine.Region{engine.RegionDE, engine.RegionAT} {
		subs, err := s.store.Subscriptions(region)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(subs) == 0 {
			continue
		}

		points, err := s.source.Day(r.Context(), region, tomorrow)
		if err != nil {
			respondError(w, http.StatusBadGateway, "failed to fetch prices: "+err.Error())
			return
		}

		payloads, err := notify.Evaluate(points, subs, now)
		if err != nil {
			s.respondEngineError(w, err)
			return
		}
		all = append(all, payloads...)
	}

	respondJSON(w, http.StatusOK, all)
}

// respondEngineError maps the engine's error taxonomy onto HTTP
// statuses: bad inputs and too-short ranges are the caller's fault,
// missing data is a no-result condition, malformed data is an
// upstream fault.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInsufficientRange), errors.Is(err, engine.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrEmptyResult):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrMalformedData):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
