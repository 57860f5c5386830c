// Package ws implements the live notification stream: a gorilla/websocket
// hub that pushes every newly stored notification to connected clients
// (the TUI, browser extensions, anything speaking the control API). The
// protocol is server-push only — clients send nothing but pong frames.
package ws

// MessageType identifies the kind of event carried by a Message.
type MessageType string

const (
	// MsgNotification is sent when the sync engine stores a new item.
	MsgNotification MessageType = "notification"

	// MsgPing keeps the connection alive and lets clients detect staleness.
	MsgPing MessageType = "ping"
)

// Message is the envelope for every frame sent to clients.
//
//	{"type":"notification","payload":{"id":"123","title":"..."}}
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}
