package voiceRepository

const (
	queryCreateVoiceCommand = `
		INSERT INTO voice_commands (
			id, user_id, source, audio_key, transcript, page_id,
			route, keyword, message, matched, audio_url, latency_ms, created_at
		) VALUES (
			:id, :user_id, :source, :audio_key, :transcript, :page_id,
			:route, :keyword, :message, :matched, :audio_url, :latency_ms, :created_at
		)
	`

	queryGetVoiceCommandsByUserID = `
		SELECT
			id, user_id, source, audio_key, transcript, page_id,
			route, keyword, message, matched, audio_url, latency_ms, created_at
		FROM voice_commands
		WHERE user_id = :user_id
		ORDER BY created_at DESC, id DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountVoiceCommandsByUserID = `
		SELECT COUNT(*)
		FROM voice_commands
		WHERE user_id = :user_id
	`

	queryCreateRoute = `
		INSERT INTO command_routes (
			page_id, path, display_name, keywords, confirmation,
			priority, is_active, created_at, updated_at
		) VALUES (
			:page_id, :path, :display_name, :keywords, :confirmation,
			:priority, :is_active, :created_at, :updated_at
		)
	`

	queryGetRouteByPageID = `
		SELECT
			page_id, path, display_name, keywords, confirmation,
			priority, is_active, created_at, updated_at
		FROM command_routes
		WHERE page_id = :page_id
	`

	queryGetAllRoutes = `
		SELECT
			page_id, path, display_name, keywords, confirmation,
			priority, is_active, created_at, updated_at
		FROM command_routes
		ORDER BY priority, created_at
	`

	queryCountRoutes = `
		SELECT COUNT(*) FROM command_routes
	`

	queryUpdateRoute = `
		UPDATE command_routes
		SET
			path = :path,
			display_name = :display_name,
			keywords = :keywords,
			confirmation = :confirmation,
			priority = :priority,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE page_id = :page_id
	`
)
