package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oddsmill/settler/internal/engine"
	"github.com/oddsmill/settler/internal/middleware"
	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
)

type MarketHandler struct {
	eng *engine.Engine
	hub *Hub
}

func NewMarketHandler(eng *engine.Engine, hub *Hub) *MarketHandler {
	return &MarketHandler{eng: eng, hub: hub}
}

func (h *MarketHandler) Register(r gin.IRouter) {
	r.POST("/markets", h.CreateMarket)
	r.GET("/markets", h.ListMarkets)
	r.GET("/markets/:id", h.GetMarket)
	r.GET("/markets/:id/config", h.GetConfig)
	r.PATCH("/markets/:id", h.UpdateMarket)
	r.POST("/markets/:id/bets", h.PlaceBet)
	r.POST("/markets/:id/claims", h.ClaimWinnings)
	r.POST("/markets/:id/score", h.ScoreMarket)
	r.POST("/markets/:id/cancel", h.CancelMarket)
	r.GET("/markets/:id/positions/:account", h.GetPosition)
	r.GET("/markets/:id/estimate", h.EstimatePayout)
	r.GET("/markets/:id/odds", h.QuoteOdds)
}

func (h *MarketHandler) CreateMarket(c *gin.Context) {
	var p engine.CreateMarketParams
	if err := c.ShouldBindJSON(&p); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInvalidRequest, err.Error(), err))
		return
	}
	st, err := h.eng.CreateMarket(c.Request.Context(), middleware.Caller(c), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.hub.BroadcastState(st)
	c.JSON(http.StatusCreated, newMarketView(st))
}

func (h *MarketHandler) ListMarkets(c *gin.Context) {
	states, err := h.eng.ListMarkets(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	views := make([]MarketView, 0, len(states))
	for _, st := range states {
		views = append(views, newMarketView(st))
	}
	c.JSON(http.StatusOK, views)
}

func (h *MarketHandler) GetMarket(c *gin.Context) {
	st, err := h.eng.GetMarket(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newMarketView(st))
}

func (h *MarketHandler) GetConfig(c *gin.Context) {
	st, err := h.eng.GetMarket(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st.Config)
}

func (h *MarketHandler) UpdateMarket(c *gin.Context) {
	var p engine.UpdateMarketParams
	if err := c.ShouldBindJSON(&p); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInvalidRequest, err.Error(), err))
		return
	}
	st, err := h.eng.UpdateMarket(c.Request.Context(), middleware.Caller(c), c.Param("id"), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.hub.BroadcastState(st)
	c.JSON(http.StatusOK, newMarketView(st))
}

func (h *MarketHandler) PlaceBet(c *gin.Context) {
	var p engine.PlaceBetParams
	if err := c.ShouldBindJSON(&p); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInvalidRequest, err.Error(), err))
		return
	}
	st, err := h.eng.PlaceBet(c.Request.Context(), middleware.Caller(c), c.Param("id"), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.hub.BroadcastState(st)
	c.JSON(http.StatusOK, newMarketView(st))
}

type claimRequest struct {
	Receiver string `json:"receiver"`
}

func (h *MarketHandler) ClaimWinnings(c *gin.Context) {
	var req claimRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(apperrors.New(apperrors.ErrInvalidRequest, err.Error(), err))
			return
		}
	}
	st, transfer, err := h.eng.ClaimWinnings(c.Request.Context(), middleware.Caller(c), c.Param("id"), req.Receiver)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.hub.BroadcastState(st)
	c.JSON(http.StatusOK, ClaimView{
		MarketID: st.Market.ID,
		Receiver: transfer.To,
		Transfer: *transfer,
	})
}

type scoreRequest struct {
	Result model.Result `json:"result"`
}

func (h *MarketHandler) ScoreMarket(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInvalidRequest, err.Error(), err))
		return
	}
	st, transfers, err := h.eng.ScoreMarket(c.Request.Context(), middleware.Caller(c), c.Param("id"), req.Result)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.hub.BroadcastState(st)
	c.JSON(http.StatusOK, gin.H{
		"market":    newMarketView(st),
		"transfers": transfers,
	})
}

func (h *MarketHandler) CancelMarket(c *gin.Context) {
	st, err := h.eng.CancelMarket(c.Request.Context(), middleware.Caller(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.hub.BroadcastState(st)
	c.JSON(http.StatusOK, newMarketView(st))
}

func (h *MarketHandler) GetPosition(c *gin.Context) {
	account := c.Param("account")
	stakes, claimed, err := h.eng.Position(c.Request.Context(), c.Param("id"), account)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, PositionView{
		MarketID: c.Param("id"),
		Account:  account,
		Stakes:   stakes,
		Claimed:  claimed,
	})
}

func (h *MarketHandler) EstimatePayout(c *gin.Context) {
	account := c.Query("account")
	if account == "" {
		_ = c.Error(apperrors.NewInvalidRequest("account query parameter is required"))
		return
	}
	result := model.Result(c.Query("result"))
	payout, err := h.eng.EstimatePayout(c.Request.Context(), c.Param("id"), account, result)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, EstimateView{
		MarketID: c.Param("id"),
		Account:  account,
		Result:   result,
		Payout:   payout,
	})
}

func (h *MarketHandler) QuoteOdds(c *gin.Context) {
	home, away, err := h.eng.QuoteOdds(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, OddsView{
		MarketID: c.Param("id"),
		Home:     home,
		Away:     away,
	})
}
