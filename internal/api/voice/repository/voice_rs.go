package voiceRepository

import (
	"AgriVoice/internal/entity"
	contextPkg "AgriVoice/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type VoiceCommandDB struct {
	ID         sql.NullString `db:"id"`
	UserID     sql.NullString `db:"user_id"`
	Source     sql.NullString `db:"source"`
	AudioKey   sql.NullString `db:"audio_key"`
	Transcript sql.NullString `db:"transcript"`
	PageID     sql.NullString `db:"page_id"`
	Route      sql.NullString `db:"route"`
	Keyword    sql.NullString `db:"keyword"`
	Message    sql.NullString `db:"message"`
	Matched    sql.NullBool   `db:"matched"`
	AudioURL   sql.NullString `db:"audio_url"`
	LatencyMS  sql.NullInt64  `db:"latency_ms"`
	CreatedAt  sql.NullTime   `db:"created_at"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *voiceCommandRepository) CreateVoiceCommand(ctx context.Context, cmd entity.VoiceCommand) error {
	requestID := contextPkg.GetRequestID(ctx)

	createdAt := cmd.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	argsKV := map[string]interface{}{
		"id":         cmd.ID,
		"user_id":    cmd.UserID,
		"source":     string(cmd.Source),
		"audio_key":  nullString(cmd.AudioKey),
		"transcript": cmd.Transcript,
		"page_id":    nullString(cmd.PageID),
		"route":      nullString(cmd.Route),
		"keyword":    nullString(cmd.Keyword),
		"message":    nullString(cmd.Message),
		"matched":    cmd.Matched,
		"audio_url":  nullString(cmd.AudioURL),
		"latency_ms": cmd.LatencyMS,
		"created_at": createdAt,
	}

	query, args, err := sqlx.Named(queryCreateVoiceCommand, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateVoiceCommand")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating voice command")
		return err
	}

	return nil
}

func (r *voiceCommandRepository) GetVoiceCommandsByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.VoiceCommand, int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryCountVoiceCommandsByUserID, map[string]interface{}{"user_id": userID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountVoiceCommands named query preparation err")
		return nil, 0, err
	}
	query = r.q.Rebind(query)

	var total int
	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountVoiceCommands execution err")
		return nil, 0, err
	}

	query, args, err = sqlx.Named(queryGetVoiceCommandsByUserID, map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVoiceCommandsByUserID named query preparation err")
		return nil, 0, err
	}
	query = r.q.Rebind(query)

	var rows []VoiceCommandDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVoiceCommandsByUserID execution err")
		return nil, 0, err
	}

	commands := make([]entity.VoiceCommand, 0, len(rows))
	for _, row := range rows {
		commands = append(commands, r.makeVoiceCommand(row))
	}

	return commands, total, nil
}

func (r *voiceCommandRepository) makeVoiceCommand(row VoiceCommandDB) entity.VoiceCommand {
	return entity.VoiceCommand{
		ID:         row.ID.String,
		UserID:     row.UserID.String,
		Source:     entity.CommandSource(row.Source.String),
		AudioKey:   row.AudioKey.String,
		Transcript: row.Transcript.String,
		PageID:     row.PageID.String,
		Route:      row.Route.String,
		Keyword:    row.Keyword.String,
		Message:    row.Message.String,
		Matched:    row.Matched.Bool,
		AudioURL:   row.AudioURL.String,
		LatencyMS:  row.LatencyMS.Int64,
		CreatedAt:  row.CreatedAt.Time,
	}
}
