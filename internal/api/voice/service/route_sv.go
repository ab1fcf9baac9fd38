package voiceService

import (
	"AgriVoice/internal/api/voice"
	voiceRepository "AgriVoice/internal/api/voice/repository"
	"AgriVoice/internal/entity"
	contextPkg "AgriVoice/pkg/context"
	"AgriVoice/pkg/command"
	"AgriVoice/pkg/response"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *voiceService) GetRoutes(ctx context.Context) ([]voice.RouteResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	routes, err := repo.Routes.GetAllRoutes(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]voice.RouteResponse, 0, len(routes))
	for _, route := range routes {
		resp = append(resp, toRouteResponse(route))
	}
	return resp, nil
}

func (s *voiceService) CreateRoute(ctx context.Context, req voice.RouteRequest) (*voice.RouteResponse, error) {
	route := routeFromRequest(req)
	return s.writeRoute(ctx, route, func(repo voiceRepository.Client) error {
		return repo.Routes.CreateRoute(ctx, route)
	})
}

func (s *voiceService) UpdateRoute(ctx context.Context, pageID string, req voice.RouteRequest) (*voice.RouteResponse, error) {
	req.PageID = pageID
	route := routeFromRequest(req)
	return s.writeRoute(ctx, route, func(repo voiceRepository.Client) error {
		existing, err := repo.Routes.GetRouteByPageID(ctx, pageID)
		if err != nil {
			return err
		}
		route.CreatedAt = existing.CreatedAt
		return repo.Routes.UpdateRoute(ctx, route)
	})
}

// writeRoute checks that the table stays matchable with route in it, applies
// write and swaps in the rebuilt matcher. Route writes are serialised so the
// live matcher always reflects the last committed table.
func (s *voiceService) writeRoute(ctx context.Context, route entity.CommandRoute, write func(voiceRepository.Client) error) (*voice.RouteResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	s.routesMu.Lock()
	defer s.routesMu.Unlock()

	if _, err := command.NewMatcher([]command.Route{toCommandRoute(route)}); err != nil {
		return nil, response.Wrap(voice.ErrInvalidRoute, err)
	}

	repo, err := s.voiceRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}
	defer repo.Rollback()

	existing, err := repo.Routes.GetAllRoutes(ctx)
	if err != nil {
		return nil, err
	}

	table := make([]entity.CommandRoute, 0, len(existing)+1)
	replaced := false
	for _, r := range existing {
		if r.PageID == route.PageID {
			createdAt := r.CreatedAt
			r = route
			r.CreatedAt = createdAt
			replaced = true
		}
		table = append(table, r)
	}
	if !replaced {
		table = append(table, route)
	}
	sortStored(table)

	matcher, err := buildMatcher(table)
	if err != nil && !errors.Is(err, command.ErrEmptyTable) {
		return nil, response.Wrap(voice.ErrInvalidRoute, err)
	}

	if err := write(repo); err != nil {
		return nil, err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		return nil, err
	}

	s.swapMatcher(ctx, matcher)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"page_id":    route.PageID,
		"path":       route.Path,
	}).Info("Route table updated")

	resp := toRouteResponse(route)
	return &resp, nil
}

// SeedDefaultRoutes stores the built-in table when none exists yet, then
// loads whatever is stored.
func (s *voiceService) SeedDefaultRoutes(ctx context.Context) error {
	requestID := contextPkg.GetRequestID(ctx)

	s.routesMu.Lock()
	defer s.routesMu.Unlock()

	repo, err := s.voiceRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}
	defer repo.Rollback()

	count, err := repo.Routes.CountRoutes(ctx)
	if err != nil {
		return err
	}

	if count == 0 {
		now := time.Now()
		for _, r := range command.DefaultRoutes() {
			route := fromCommandRoute(r)
			route.CreatedAt = now
			route.UpdatedAt = now
			if err := repo.Routes.CreateRoute(ctx, route); err != nil {
				return err
			}
		}

		if err := repo.Commit(); err != nil {
			return err
		}

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"routes":     len(command.DefaultRoutes()),
		}).Info("Seeded default command routes")
	}

	return s.reloadRoutes(ctx)
}

// ReloadRoutes rebuilds the matcher from the stored active routes. An empty
// table falls back to the built-in routes; a broken one leaves the current
// matcher in place.
func (s *voiceService) ReloadRoutes(ctx context.Context) error {
	s.routesMu.Lock()
	defer s.routesMu.Unlock()
	return s.reloadRoutes(ctx)
}

func (s *voiceService) reloadRoutes(ctx context.Context) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		return err
	}

	routes, err := repo.Routes.GetAllRoutes(ctx)
	if err != nil {
		return err
	}

	matcher, err := buildMatcher(routes)
	if err != nil && !errors.Is(err, command.ErrEmptyTable) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Stored route table is invalid, keeping current matcher")
		return response.Wrap(voice.ErrInvalidRoute, err)
	}

	s.swapMatcher(ctx, matcher)
	return nil
}

func (s *voiceService) swapMatcher(ctx context.Context, matcher *command.Matcher) {
	if matcher == nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
		}).Warn("No active routes stored, using built-in routes")
		matcher, _ = command.NewMatcher(command.DefaultRoutes())
	}

	s.mu.Lock()
	s.matcher = matcher
	s.mu.Unlock()
}

// sortStored puts routes in the order the repository lists them.
func sortStored(routes []entity.CommandRoute) {
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Priority != routes[j].Priority {
			return routes[i].Priority < routes[j].Priority
		}
		return routes[i].CreatedAt.Before(routes[j].CreatedAt)
	})
}

// buildMatcher returns command.ErrEmptyTable when no route is active.
func buildMatcher(routes []entity.CommandRoute) (*command.Matcher, error) {
	active := make([]command.Route, 0, len(routes))
	for _, r := range routes {
		if r.IsActive {
			active = append(active, toCommandRoute(r))
		}
	}
	return command.NewMatcher(active)
}

func routeFromRequest(req voice.RouteRequest) entity.CommandRoute {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	keywords := make([]string, 0, len(req.Keywords))
	for _, k := range req.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	now := time.Now()
	return entity.CommandRoute{
		PageID:       strings.TrimSpace(req.PageID),
		Path:         strings.TrimSpace(req.Path),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Keywords:     keywords,
		Confirmation: strings.TrimSpace(req.Confirmation),
		Priority:     req.Priority,
		IsActive:     isActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func toCommandRoute(r entity.CommandRoute) command.Route {
	return command.Route{
		PageID:       r.PageID,
		Path:         r.Path,
		DisplayName:  r.DisplayName,
		Keywords:     r.Keywords,
		Confirmation: r.Confirmation,
		Priority:     r.Priority,
	}
}

func fromCommandRoute(r command.Route) entity.CommandRoute {
	return entity.CommandRoute{
		PageID:       r.PageID,
		Path:         r.Path,
		DisplayName:  r.DisplayName,
		Keywords:     r.Keywords,
		Confirmation: r.Confirmation,
		Priority:     r.Priority,
		IsActive:     true,
	}
}

func toRouteResponse(r entity.CommandRoute) voice.RouteResponse {
	return voice.RouteResponse{
		PageID:       r.PageID,
		Path:         r.Path,
		DisplayName:  r.DisplayName,
		Keywords:     r.Keywords,
		Confirmation: r.Confirmation,
		Priority:     r.Priority,
		IsActive:     r.IsActive,
		UpdatedAt:    r.UpdatedAt,
	}
}
