package deduction

import "flip/internal/domain"

// Project implements domain.Rules. Tiles the viewer does not own and that are
// not revealed carry no identity; with ShowHiddenColors only their back color
// is shown. Session id, sequence and log are filled in by the coordinator.
func (r *Rules) Project(s domain.State, viewer string) domain.View {
	st, ok := s.(*State)
	if !ok {
		return domain.View{Variant: domain.VariantDeduction, Viewer: viewer}
	}
	status := st.Status()
	byColor := st.Deck.RemainingCountByColor()
	v := domain.View{
		Variant:      domain.VariantDeduction,
		Viewer:       viewer,
		Turn:         st.Turn,
		Phase:        st.Phase,
		ActivePlayer: status.ActivePlayer,
		Outcome:      st.Outcome,
		Winner:       st.Winner,
		Deck: domain.DeckView{
			Remaining: st.Deck.RemainingCount(),
			ByColor: map[string]int{
				Black.String(): byColor[Black],
				White.String(): byColor[White],
			},
		},
		Players: make([]domain.PlayerView, 0, len(st.Players)),
	}

	for _, p := range st.Players {
		own := p.ID == viewer
		pv := domain.PlayerView{
			ID:          p.ID,
			Bot:         p.Bot,
			HandSize:    len(p.Hand),
			HiddenCount: p.Hand.HiddenCount(),
			Settled:     p.Settled,
			Eliminated:  r.opts.WinRule == WinLastConcealed && p.Hand.AllRevealed(),
			Slots:       make([]domain.CardView, 0, len(p.Hand)),
		}
		for _, slot := range p.Hand {
			pv.Slots = append(pv.Slots, r.slotView(slot.Card, slot.Revealed, own))
		}
		v.Players = append(v.Players, pv)
	}

	if st.Pending != nil {
		pending := r.slotView(*st.Pending, false, status.ActivePlayer == viewer)
		v.Pending = &pending
	}
	return v
}

func (r *Rules) slotView(c Card, revealed, own bool) domain.CardView {
	if !revealed && !own {
		cv := domain.CardView{Hidden: true}
		if r.opts.ShowHiddenColors {
			cv.Color = c.Color.String()
		}
		return cv
	}
	cv := domain.CardView{
		Revealed: revealed,
		Code:     c.Code(),
		Color:    c.Color.String(),
		Joker:    c.Joker,
	}
	if !c.Joker {
		rank := c.Rank
		cv.Rank = &rank
	}
	return cv
}
