package domain

// Command is a typed player intent. Each variant defines its own set.
type Command interface {
	Name() string
}

// Envelope is the transport-neutral encoding of a command, shared by every
// port (HTTP, WebSocket, NATS, Nakama). Fields unused by a command are ignored.
type Envelope struct {
	Type     string   `json:"type"`
	Color    string   `json:"color,omitempty"`
	Value    string   `json:"value,omitempty"`
	Target   string   `json:"target,omitempty"`
	Index    *int     `json:"index,omitempty"`
	Rank     *int     `json:"rank,omitempty"`
	Joker    bool     `json:"joker,omitempty"`
	Continue *bool    `json:"continue,omitempty"`
	Order    []string `json:"order,omitempty"`
}

// IntPtr is a helper for building envelopes.
func IntPtr(v int) *int { return &v }

// BoolPtr is a helper for building envelopes.
func BoolPtr(v bool) *bool { return &v }
