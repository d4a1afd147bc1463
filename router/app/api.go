package app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/store"
)

// Handler builds the HTTP API: swaps and balances under /api, prometheus
// metrics under /metrics.
func (r *Router) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), r.countRequests)
	g := router.Group("/api")
	g.POST("/swap", r.postSwap)
	g.GET("/swap", r.getSwap)
	g.GET("/balance", r.getBalance)
	g.GET("/sandbox", r.getSandbox)
	router.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	return router
}

func (r *Router) countRequests(c *gin.Context) {
	c.Next()
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	r.metrics.apiRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
}

func (r *Router) postSwap(c *gin.Context) {
	var body SwapRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	req, err := buildRequest(&body, r.defaultMode)
	if err != nil {
		r.swapError(c, err)
		return
	}
	result, err := r.Swap(req)
	if err != nil {
		r.swapError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildSwapFromResult(result, newAmounts(r.token)))
}

// swapError maps plan errors to 400, cancelled calls to 503, other
// discriminated failures to 422 and everything else to 500.
func (r *Router) swapError(c *gin.Context, err error) {
	if errors.Is(err, ErrSandboxDisabled) {
		c.JSON(http.StatusServiceUnavailable, &ErrorResponse{Error: err.Error()})
		return
	}
	resp := &ErrorResponse{Error: err.Error()}
	codespace, code, ok := errcode.Code(err)
	if !ok {
		// request decoding errors carry no discriminant
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	class := errcode.ClassOf(err)
	resp.Class, resp.Codespace, resp.Code = class.String(), codespace, code
	status := http.StatusUnprocessableEntity
	switch class {
	case errcode.PlanValidation:
		status = http.StatusBadRequest
	case errcode.Cancelled:
		status = http.StatusServiceUnavailable
	case errcode.Unknown:
		status = http.StatusInternalServerError
	}
	r.log.Debug("swap rejected", zap.Int("status", status), zap.Error(err))
	c.JSON(status, resp)
}

func (r *Router) getSwap(c *gin.Context) {
	a := newAmounts(r.token)
	if idStr, ok := c.GetQuery("id"); ok {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, &ErrorResponse{Error: "id is invalid"})
			return
		}
		record, err := r.store.GetSwap(id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, buildSwap(record, a))
		return
	}
	orderStr, ok := c.GetQuery("order_id")
	if !ok {
		c.JSON(http.StatusBadRequest, &ErrorResponse{Error: "id or order_id is required"})
		return
	}
	orderId, err := strconv.ParseUint(orderStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, &ErrorResponse{Error: "order_id is invalid"})
		return
	}
	records, err := r.store.GetSwapsByOrder(orderId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	swaps := make([]*Swap, 0, len(records))
	for _, record := range records {
		swaps = append(swaps, buildSwap(record, a))
	}
	c.JSON(http.StatusOK, swaps)
}

func (r *Router) getBalance(c *gin.Context) {
	account, ok := c.GetQuery("account")
	if !ok {
		c.JSON(http.StatusBadRequest, &ErrorResponse{Error: "account is required"})
		return
	}
	key, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		c.JSON(http.StatusBadRequest, &ErrorResponse{Error: "account is invalid"})
		return
	}
	user, err := r.token.GetUser(key)
	if err != nil {
		c.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
		return
	}
	mint, err := r.token.GetToken(user.Mint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildBalance(user, mint.Decimals))
}

func (r *Router) getSandbox(c *gin.Context) {
	if r.sandbox == nil {
		c.JSON(http.StatusNotFound, &ErrorResponse{Error: ErrSandboxDisabled.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"slot":    r.ledger.Committed().Slot(),
		"sandbox": r.sandbox,
	})
}
