package entity

import (
	"time"
)

type CommandSource string

const (
	CommandSourceUpload CommandSource = "upload"
	CommandSourceStream CommandSource = "stream"
	CommandSourceText   CommandSource = "text"
)

type VoiceCommand struct {
	ID         string
	UserID     string
	Source     CommandSource
	AudioKey   string
	Transcript string
	PageID     string
	Route      string
	Keyword    string
	Message    string
	Matched    bool
	AudioURL   string
	LatencyMS  int64
	CreatedAt  time.Time
}

type CommandRoute struct {
	PageID       string
	Path         string
	DisplayName  string
	Keywords     []string
	Confirmation string
	Priority     int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
