package voiceRepository

import (
	"AgriVoice/internal/api/voice"
	"AgriVoice/internal/entity"
	contextPkg "AgriVoice/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type CommandRouteDB struct {
	PageID       sql.NullString `db:"page_id"`
	Path         sql.NullString `db:"path"`
	DisplayName  sql.NullString `db:"display_name"`
	Keywords     pq.StringArray `db:"keywords"`
	Confirmation sql.NullString `db:"confirmation"`
	Priority     sql.NullInt64  `db:"priority"`
	IsActive     sql.NullBool   `db:"is_active"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
}

func routeArgs(route entity.CommandRoute) map[string]interface{} {
	return map[string]interface{}{
		"page_id":      route.PageID,
		"path":         route.Path,
		"display_name": route.DisplayName,
		"keywords":     pq.StringArray(route.Keywords),
		"confirmation": route.Confirmation,
		"priority":     route.Priority,
		"is_active":    route.IsActive,
		"updated_at":   time.Now(),
	}
}

func (r *routeRepository) CreateRoute(ctx context.Context, route entity.CommandRoute) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := routeArgs(route)
	argsKV["created_at"] = argsKV["updated_at"]

	query, args, err := sqlx.Named(queryCreateRoute, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateRoute")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"page_id":    route.PageID,
			}).Warn("Route already exists")
			return voice.ErrRouteAlreadyExists
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating route")
		return err
	}

	return nil
}

func (r *routeRepository) UpdateRoute(ctx context.Context, route entity.CommandRoute) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryUpdateRoute, routeArgs(route))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateRoute named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateRoute execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateRoute rows affected err")
		return err
	}

	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"page_id":    route.PageID,
		}).Warn("UpdateRoute no rows affected")
		return voice.ErrRouteNotFound
	}

	return nil
}

func (r *routeRepository) GetRouteByPageID(ctx context.Context, pageID string) (entity.CommandRoute, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var row CommandRouteDB

	query, args, err := sqlx.Named(queryGetRouteByPageID, map[string]interface{}{"page_id": pageID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetRouteByPageID named query preparation err")
		return entity.CommandRoute{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.CommandRoute{}, voice.ErrRouteNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetRouteByPageID execution err")
		return entity.CommandRoute{}, err
	}

	return r.makeRoute(row), nil
}

func (r *routeRepository) GetAllRoutes(ctx context.Context) ([]entity.CommandRoute, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var rows []CommandRouteDB

	if err := r.q.SelectContext(ctx, &rows, queryGetAllRoutes); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAllRoutes execution err")
		return nil, err
	}

	routes := make([]entity.CommandRoute, 0, len(rows))
	for _, row := range rows {
		routes = append(routes, r.makeRoute(row))
	}

	return routes, nil
}

func (r *routeRepository) CountRoutes(ctx context.Context) (int, error) {
	var total int
	if err := r.q.QueryRowxContext(ctx, queryCountRoutes).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("CountRoutes execution err")
		return 0, err
	}
	return total, nil
}

func (r *routeRepository) makeRoute(row CommandRouteDB) entity.CommandRoute {
	return entity.CommandRoute{
		PageID:       row.PageID.String,
		Path:         row.Path.String,
		DisplayName:  row.DisplayName.String,
		Keywords:     []string(row.Keywords),
		Confirmation: row.Confirmation.String,
		Priority:     int(row.Priority.Int64),
		IsActive:     row.IsActive.Bool,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}
