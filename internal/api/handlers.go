package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roach88/f1metrix/internal/dashboard"
)

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.app.Store.Ping(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"database": "ok", "cached": s.app.Cache.Len()})
}

func (s *Server) handleTables(c *gin.Context) {
	tables, err := s.app.Tables(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, tables)
}

func (s *Server) handleTable(c *gin.Context) {
	head, valid := intQuery(c, "head", 0)
	if !valid {
		return
	}
	t, err := s.app.Cache.Load(c.Request.Context(), c.Param("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	if head > 0 {
		t = t.Head(head)
	}
	ok(c, t)
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	SQL string `json:"sql" binding:"required"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request body must be {\"sql\": \"...\"}")
		return
	}

	res, err := s.app.Gateway.Run(c.Request.Context(), req.SQL)
	if err != nil {
		status, e := describe(err)
		resp := Response{Status: "error", Error: e, RequestID: c.GetString(requestIDKey)}
		if qe, isQE := asQueryError(err); isQE {
			resp.QueryID = qe.ID
		}
		c.AbortWithStatusJSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, Response{
		Status:    "ok",
		Data:      res,
		RequestID: c.GetString(requestIDKey),
		QueryID:   res.ID,
	})
}

func (s *Server) handleEditorialList(c *gin.Context) {
	ok(c, s.app.Catalog.List())
}

func (s *Server) handleEditorialRun(c *gin.Context) {
	values := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			values[k] = v[len(v)-1]
		}
	}
	q, t, err := s.app.Editorial(c.Request.Context(), c.Param("name"), values)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"query": q, "table": t})
}

func (s *Server) handleAllTime(c *gin.Context) {
	top, valid := intQuery(c, "top", dashboard.DefaultTop)
	if !valid {
		return
	}
	t, err := s.app.Dashboard.AllTime(c.Request.Context(), top)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, t)
}

func (s *Server) handleYearly(c *gin.Context) {
	year, valid := int64Query(c, "year")
	if !valid {
		return
	}
	limit, valid := intQuery(c, "limit", 0)
	if !valid {
		return
	}

	ctx := c.Request.Context()
	years, err := s.app.Dashboard.Years(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	t, err := s.app.Dashboard.Yearly(ctx, year, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"years": years, "table": t})
}

func (s *Server) handlePerformance(c *gin.Context) {
	from, valid := int64Query(c, "from")
	if !valid {
		return
	}
	to, valid := int64Query(c, "to")
	if !valid {
		return
	}
	view, err := s.app.Dashboard.Performance(c.Request.Context(), dashboard.PerformanceFilter{
		Drivers:  c.QueryArray("driver"),
		FromYear: from,
		ToYear:   to,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, view)
}

func (s *Server) handleHeadToHead(c *gin.Context) {
	matchups, err := s.app.Dashboard.HeadToHead(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, matchups)
}

func (s *Server) handleInternals(c *gin.Context) {
	view, err := s.app.Dashboard.Internals(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{
		"summary":     view.Summary,
		"diagnostics": view.Diagnostics,
		"converged":   view.Converged(),
	})
}

func (s *Server) handleCacheStats(c *gin.Context) {
	ok(c, s.app.Cache.Stats())
}

func (s *Server) handleCacheClear(c *gin.Context) {
	n := s.app.ClearCache()
	s.logger.InfoContext(c.Request.Context(), "cache cleared over API", "entries", n, "request_id", c.GetString(requestIDKey))
	ok(c, gin.H{"cleared": n})
}

// intQuery parses an optional integer query parameter, writing a 400 on
// malformed input.
func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw, present := c.GetQuery(key)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func int64Query(c *gin.Context, key string) (int64, bool) {
	n, valid := intQuery(c, key, 0)
	return int64(n), valid
}
