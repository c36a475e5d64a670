package shedding

import "flip/internal/domain"

// Project implements domain.Rules. Other players' hands appear as hidden
// placeholders; cards never become public while held.
func (r *Rules) Project(s domain.State, viewer string) domain.View {
	st, ok := s.(*State)
	if !ok {
		return domain.View{Variant: domain.VariantShedding, Viewer: viewer}
	}
	status := st.Status()
	v := domain.View{
		Variant:       domain.VariantShedding,
		Viewer:        viewer,
		Turn:          st.Turn,
		Phase:         st.Phase,
		ActivePlayer:  status.ActivePlayer,
		Direction:     st.Direction,
		PendingDraw:   st.PendingDraw,
		ActiveColor:   string(st.ActiveColor),
		CallThreshold: r.opts.CallThreshold,
		Outcome:       st.Outcome,
		Winner:        st.Winner,
		Deck: domain.DeckView{
			Remaining: st.Deck.RemainingCount(),
			Discard:   st.Deck.DiscardCount(),
		},
		Players: make([]domain.PlayerView, 0, len(st.Players)),
	}
	if top, ok := st.Deck.Top(); ok {
		cv := cardView(top)
		cv.Revealed = true
		v.TopCard = &cv
	}

	for _, p := range st.Players {
		pv := domain.PlayerView{
			ID:          p.ID,
			Bot:         p.Bot,
			HandSize:    len(p.Hand),
			HiddenCount: len(p.Hand),
			Declared:    p.Declared,
			Slots:       make([]domain.CardView, 0, len(p.Hand)),
		}
		for _, c := range p.Hand {
			if p.ID == viewer {
				pv.Slots = append(pv.Slots, cardView(c))
			} else {
				pv.Slots = append(pv.Slots, domain.CardView{Hidden: true})
			}
		}
		v.Players = append(v.Players, pv)
	}
	return v
}

func cardView(c Card) domain.CardView {
	return domain.CardView{
		Code:  c.String(),
		Color: string(c.Color),
		Value: string(c.Value),
	}
}
