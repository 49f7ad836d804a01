package markethttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caelum0x/immortal-bnb-sub004/internal/feed"
	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
)

// MarketFeed is the feed surface the API consumes.
type MarketFeed interface {
	Watch(instrument string)
	Unwatch(instrument string)
	CurrentPrice(instrument string) (market.Observation, bool)
	History(instrument string, limit int) []market.HistoryEntry
	Candles(instrument, interval string, count int) ([]market.Candle, error)
	Watchlist() []string
	Stats() feed.Stats
}

// Router exposes the market query and watchlist endpoints.
type Router struct {
	feed MarketFeed
}

func NewRouter(f MarketFeed) *Router {
	return &Router{feed: f}
}

// Register mounts the routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/price/:instrument", r.handlePrice)
	group.GET("/history/:instrument", r.handleHistory)
	group.GET("/candles/:instrument", r.handleCandles)
	group.GET("/stats", r.handleStats)
	group.GET("/watchlist", r.handleWatchlist)
	group.POST("/watchlist", r.handleWatch)
	group.DELETE("/watchlist/:instrument", r.handleUnwatch)
}

func (r *Router) handlePrice(c *gin.Context) {
	instrument := strings.TrimSpace(c.Param("instrument"))
	obs, ok := r.feed.CurrentPrice(instrument)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price for instrument"})
		return
	}
	c.JSON(http.StatusOK, obs)
}

func (r *Router) handleHistory(c *gin.Context) {
	instrument := strings.TrimSpace(c.Param("instrument"))
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	entries := r.feed.History(instrument, limit)
	if entries == nil {
		entries = []market.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"instrument": instrument, "entries": entries})
}

func (r *Router) handleCandles(c *gin.Context) {
	instrument := strings.TrimSpace(c.Param("instrument"))
	interval := c.DefaultQuery("interval", "5m")
	count := 60
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count"})
			return
		}
		count = parsed
	}
	candles, err := r.feed.Candles(instrument, interval, count)
	if err != nil {
		if errors.Is(err, market.ErrInvalidInterval) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instrument": instrument, "interval": interval, "candles": candles})
}

func (r *Router) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, r.feed.Stats())
}

func (r *Router) handleWatchlist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"instruments": r.feed.Watchlist()})
}

type watchRequest struct {
	Instrument string `json:"instrument" binding:"required"`
}

func (r *Router) handleWatch(c *gin.Context) {
	var req watchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instrument is required"})
		return
	}
	instrument := strings.TrimSpace(req.Instrument)
	if instrument == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instrument is required"})
		return
	}
	r.feed.Watch(instrument)
	c.JSON(http.StatusOK, gin.H{"instrument": instrument, "watching": true})
}

func (r *Router) handleUnwatch(c *gin.Context) {
	instrument := strings.TrimSpace(c.Param("instrument"))
	if instrument == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instrument is required"})
		return
	}
	r.feed.Unwatch(instrument)
	c.JSON(http.StatusOK, gin.H{"instrument": instrument, "watching": false})
}
