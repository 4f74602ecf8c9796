package irisfast

import "strings"

// Message is one chat event pushed by the Iris gateway.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// MessageJSON carries the raw chat log fields Iris forwards with a message.
type MessageJSON struct {
	UserID  string `json:"user_id"`
	ChatID  string `json:"chat_id,omitempty"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

// UserID prefers the stable Kakao user id and falls back to the sender name.
func (m *Message) UserID() string {
	if m == nil {
		return ""
	}
	if m.JSON != nil && strings.TrimSpace(m.JSON.UserID) != "" {
		return strings.TrimSpace(m.JSON.UserID)
	}
	if m.Sender != nil {
		return strings.TrimSpace(*m.Sender)
	}
	return ""
}

// SenderName is the display name, or the user id when Iris sent none.
func (m *Message) SenderName() string {
	if m == nil {
		return ""
	}
	if m.Sender != nil && strings.TrimSpace(*m.Sender) != "" {
		return strings.TrimSpace(*m.Sender)
	}
	return m.UserID()
}

// Config mirrors Iris GET /config.
type Config struct {
	Port              int    `json:"port"`
	PollingSpeed      int    `json:"polling_speed"`
	MessageRate       int    `json:"message_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

type ImageReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

type DecryptRequest struct {
	Data string `json:"data"`
}

type DecryptResponse struct {
	Decrypted string `json:"decrypted"`
}

// WebSocketState is the connection lifecycle of WebSocket.
type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// HeaderProvider allows injecting per-request headers.
type HeaderProvider func() map[string]string

// StaticHeaders builds the X-User-* handshake headers, skipping empty values.
func StaticHeaders(userID, email, sessionID string) HeaderProvider {
	h := map[string]string{}
	if v := strings.TrimSpace(userID); v != "" {
		h["X-User-Id"] = v
	}
	if v := strings.TrimSpace(email); v != "" {
		h["X-User-Email"] = v
	}
	if v := strings.TrimSpace(sessionID); v != "" {
		h["X-Session-Id"] = v
	}
	return func() map[string]string { return h }
}
