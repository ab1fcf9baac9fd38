package voice

import (
	"mime/multipart"
	"time"
)

type ProcessVoiceRequest struct {
	AudioFile *multipart.FileHeader `validate:"required"`
}

// VoiceCommandResponse is what the client needs to navigate: route is empty
// and matched is false when nothing in the table was heard.
type VoiceCommandResponse struct {
	CommandID  string `json:"command_id,omitempty"`
	Transcript string `json:"transcript"`
	Matched    bool   `json:"matched"`
	PageID     string `json:"page_id,omitempty"`
	Route      string `json:"route"`
	Keyword    string `json:"keyword,omitempty"`
	Message    string `json:"message"`
	AudioURL   string `json:"audio_url,omitempty"`
}

type MatchRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

type MatchResponse struct {
	Text       string `json:"text"`
	Normalized string `json:"normalized"`
	Matched    bool   `json:"matched"`
	PageID     string `json:"page_id,omitempty"`
	Route      string `json:"route"`
	Keyword    string `json:"keyword,omitempty"`
	Message    string `json:"message"`
}

type RouteRequest struct {
	PageID       string   `json:"page_id" validate:"required,max=64"`
	Path         string   `json:"path" validate:"required,startswith=/,max=255"`
	DisplayName  string   `json:"display_name" validate:"max=255"`
	Keywords     []string `json:"keywords" validate:"required,min=1,dive,required,max=100"`
	Confirmation string   `json:"confirmation" validate:"max=255"`
	Priority     int      `json:"priority" validate:"gte=0"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

type RouteResponse struct {
	PageID       string    `json:"page_id"`
	Path         string    `json:"path"`
	DisplayName  string    `json:"display_name"`
	Keywords     []string  `json:"keywords"`
	Confirmation string    `json:"confirmation"`
	Priority     int       `json:"priority"`
	IsActive     bool      `json:"is_active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type VoiceCommandHistory struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Transcript string    `json:"transcript"`
	Matched    bool      `json:"matched"`
	PageID     string    `json:"page_id,omitempty"`
	Route      string    `json:"route,omitempty"`
	Message    string    `json:"message,omitempty"`
	AudioURL   string    `json:"audio_url,omitempty"`
	LatencyMS  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
