package domain

// View is the per-player projection of a session. Everything in it is safe
// to show to Viewer.
type View struct {
	SessionID     string       `json:"session_id"`
	Variant       Variant      `json:"variant"`
	Viewer        string       `json:"viewer"`
	Seq           uint64       `json:"seq"`
	Turn          int          `json:"turn"`
	Phase         Phase        `json:"phase"`
	ActivePlayer  string       `json:"active_player"`
	Direction     int          `json:"direction,omitempty"`
	PendingDraw   int          `json:"pending_draw,omitempty"`
	ActiveColor   string       `json:"active_color,omitempty"`
	CallThreshold int          `json:"call_threshold,omitempty"`
	TopCard       *CardView    `json:"top_card,omitempty"`
	Pending       *CardView    `json:"pending,omitempty"`
	Deck          DeckView     `json:"deck"`
	Players       []PlayerView `json:"players"`
	Outcome       Outcome      `json:"outcome,omitempty"`
	Winner        string       `json:"winner,omitempty"`
	Log           []LogEntry   `json:"log"`
}

// DeckView exposes aggregate pile sizes only.
type DeckView struct {
	Remaining int            `json:"remaining"`
	ByColor   map[string]int `json:"by_color,omitempty"`
	Discard   int            `json:"discard,omitempty"`
}

// PlayerView is one participant as seen by the viewer.
type PlayerView struct {
	ID          string     `json:"id"`
	Bot         bool       `json:"bot,omitempty"`
	HandSize    int        `json:"hand_size"`
	HiddenCount int        `json:"hidden_count"`
	Slots       []CardView `json:"slots"`
	Settled     bool       `json:"settled,omitempty"`
	Declared    bool       `json:"declared,omitempty"`
	Eliminated  bool       `json:"eliminated,omitempty"`
}

// CardView is a card slot. When Hidden is set the identity fields are empty,
// except Color where a house rule makes tile backs visible.
type CardView struct {
	Hidden   bool   `json:"hidden,omitempty"`
	Revealed bool   `json:"revealed,omitempty"`
	Code     string `json:"code,omitempty"`
	Color    string `json:"color,omitempty"`
	Rank     *int   `json:"rank,omitempty"`
	Joker    bool   `json:"joker,omitempty"`
	Value    string `json:"value,omitempty"`
}

// PlayerByID returns the view entry for id.
func (v View) PlayerByID(id string) (PlayerView, bool) {
	for _, p := range v.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}
