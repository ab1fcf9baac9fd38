package voiceHandler

import (
	contextPkg "AgriVoice/pkg/context"
	"AgriVoice/pkg/handlerUtil"
	"AgriVoice/pkg/log"
	"context"
	"io"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
)

const (
	streamTimeout     = 30 * time.Second
	streamIdleTimeout = 10 * time.Second
)

type streamControl struct {
	Type string `json:"type"`
}

// handleStream feeds binary frames to the streaming recogniser and answers
// with a single JSON result before closing. An empty binary frame, a
// {"type":"stop"} text frame or a close from the client ends the audio.
func (h *VoiceHandler) handleStream(conn *websocket.Conn) {
	userID, _ := conn.Locals(localsUserID).(string)
	requestID, _ := conn.Locals(localsRequestID).(string)

	ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), streamTimeout)
	defer cancel()

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"user_id":    userID,
	}).Info("Voice stream connected")

	pr, pw := io.Pipe()
	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		pw.CloseWithError(h.pumpAudio(conn, pw))
	}()

	res, err := h.voiceService.ProcessStream(ctx, userID, pr)
	_ = pr.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err != nil {
		status, body := handlerUtil.Describe(requestID, err)
		fields := log.Fields{
			"request_id": requestID,
			"status":     status,
			"error":      err.Error(),
		}
		if status >= 500 {
			h.log.WithFields(fields).Error("Voice stream failed")
		} else {
			h.log.WithFields(fields).Warn("Voice stream failed")
		}
		_ = conn.WriteJSON(body)
	} else if err := conn.WriteJSON(res); err != nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to write voice stream result")
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.SetReadDeadline(time.Now())
	<-pumped
}

func (h *VoiceHandler) pumpAudio(conn *websocket.Conn, w io.Writer) error {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(streamIdleTimeout)); err != nil {
			return err
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		switch messageType {
		case websocket.BinaryMessage:
			if len(message) == 0 {
				return nil
			}
			if _, err := w.Write(message); err != nil {
				return err
			}
		case websocket.TextMessage:
			var ctl streamControl
			if err := jsoniter.Unmarshal(message, &ctl); err == nil && ctl.Type == "stop" {
				return nil
			}
		}
	}
}
