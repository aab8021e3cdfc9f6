package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
)

type wsClientMsg struct {
	Type     string `json:"type"` // subscribe | unsubscribe | ping
	MarketID string `json:"market_id,omitempty"`
}

// MarketUpdate is pushed to subscribers after every successful mutating
// operation on their market.
type MarketUpdate struct {
	Type     string                            `json:"type"`
	MarketID string                            `json:"market_id"`
	Status   model.MarketStatus                `json:"status"`
	Result   model.Result                      `json:"result,omitempty"`
	Totals   map[model.Outcome]decimal.Decimal `json:"totals"`
	OddsHome decimal.Decimal                   `json:"odds_home"`
	OddsAway decimal.Decimal                   `json:"odds_away"`
	TsUnixMs int64                             `json:"ts_unix_ms"`
}

// wsConn serializes writes. The websocket protocol allows one writer at a
// time; broadcasts from different handler goroutines and the read loop's
// pong all go through this mutex.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub manages websocket subscriptions keyed by market id.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*wsConn]struct{}
}

func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*wsConn]struct{}),
	}
}

// HandleWS runs the subscribe/unsubscribe loop for one connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	wc := &wsConn{conn: conn}
	defer conn.Close()

	for {
		var msg wsClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.MarketID]; !ok {
				h.subs[msg.MarketID] = make(map[*wsConn]struct{})
			}
			h.subs[msg.MarketID][wc] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if set, ok := h.subs[msg.MarketID]; ok {
				delete(set, wc)
				if len(set) == 0 {
					delete(h.subs, msg.MarketID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = wc.writeJSON(map[string]string{"type": "pong"})
		}
	}

	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, wc)
	}
	h.mu.Unlock()
}

// BroadcastState pushes a market snapshot to every subscriber of that market.
func (h *Hub) BroadcastState(st *ledger.State) {
	totals := make(map[model.Outcome]decimal.Decimal, len(model.Outcomes))
	for _, o := range model.Outcomes {
		totals[o] = st.Bets.TotalOf(o)
	}
	update := MarketUpdate{
		Type:     "market_update",
		MarketID: st.Market.ID,
		Status:   st.Market.Status,
		Result:   st.Market.Result,
		Totals:   totals,
		OddsHome: st.Market.OddsHome,
		OddsAway: st.Market.OddsAway,
		TsUnixMs: time.Now().UnixMilli(),
	}

	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.subs[update.MarketID]))
	for wc := range h.subs[update.MarketID] {
		conns = append(conns, wc)
	}
	h.mu.RUnlock()

	for _, wc := range conns {
		if err := wc.writeJSON(update); err != nil {
			h.mu.Lock()
			if set, ok := h.subs[update.MarketID]; ok {
				delete(set, wc)
			}
			h.mu.Unlock()
		}
	}
}
