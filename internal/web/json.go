package web

import (
	"log"

	"github.com/rkorell/pyrod/internal/inventory"
	"github.com/rkorell/pyrod/internal/weather"
)

// StateJSON is the wire form of the console state, served by
// GET /api/state and pushed as the payload of state_update messages.
type StateJSON struct {
	Authorized bool              `json:"authorized"`
	Armed      bool              `json:"armed"`
	Fired      map[string]bool   `json:"fired"`
	Igniters   []inventory.Entry `json:"igniters,omitempty"`
}

// GroupJSON describes one igniter group for the console page.
type GroupJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type weatherJSON struct {
	Current  *weather.Observation   `json:"current,omitempty"`
	Forecast []weather.ForecastHour `json:"forecast,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func (s *Server) stateJSON() StateJSON {
	snap := s.ctrl.State().Snapshot()
	out := StateJSON{
		Authorized: snap.Authorized,
		Armed:      snap.Armed,
		Fired:      snap.Fired,
	}
	if out.Fired == nil {
		out.Fired = map[string]bool{}
	}
	if s.store != nil {
		entries, err := s.store.List()
		if err != nil {
			log.Printf("web: list igniters: %v", err)
		} else {
			out.Igniters = entries
		}
	}
	return out
}

func (s *Server) broadcastState() {
	s.hub.broadcast(map[string]interface{}{
		"type":  "state_update",
		"state": s.stateJSON(),
	})
}
