package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"upi-gateway/web/middleware"
	"upi-gateway/web/order"
	"upi-gateway/web/qrcode"
)

type OrderController struct {
	engine  *order.Engine
	baseURL string // prefix for payer-facing pay pages
}

func NewOrderController(engine *order.Engine, baseURL string) *OrderController {
	return &OrderController{engine: engine, baseURL: baseURL}
}

func orderErrStatus(err error) (int, string) {
	switch {
	case errors.Is(err, order.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, order.ErrExpired):
		return http.StatusBadRequest, "order expired"
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden, "not authorized as an admin"
	case errors.Is(err, order.ErrConflict):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "server error"
	}
}

func abortWithOrderErr(c *gin.Context, err error) {
	status, msg := orderErrStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("order operation failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func (oc *OrderController) Create(c *gin.Context) {
	var body struct {
		Amount       decimal.Decimal `json:"amount"`
		VPA          string          `json:"vpa"`
		MerchantName string          `json:"merchantName"`
		Note         string          `json:"note"`
		ExpiresInSec int             `json:"expiresInSec"`
	}

	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	o, err := oc.engine.Create(c.Request.Context(), order.CreateInput{
		Amount:       body.Amount,
		VPA:          body.VPA,
		MerchantName: body.MerchantName,
		Note:         body.Note,
		ExpiresIn:    time.Duration(body.ExpiresInSec) * time.Second,
	})
	if err != nil {
		abortWithOrderErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"orderId":    o.PublicID,
		"payPageUrl": oc.baseURL + "/pay/" + o.PublicID,
		"upiLink":    o.DeepLink,
	})
}

func (oc *OrderController) Get(c *gin.Context) {
	p, err := oc.engine.GetPublic(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		abortWithOrderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId":      p.OrderID,
		"amount":       p.Amount.StringFixed(2),
		"merchantName": p.MerchantName,
		"maskedVpa":    p.MaskedVPA,
		"upiLink":      p.DeepLink,
		"status":       p.Status,
		"expiresAt":    p.ExpiresAt.Format(time.RFC3339),
	})
}

func (oc *OrderController) QR(c *gin.Context) {
	link, err := oc.engine.DeepLink(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		abortWithOrderErr(c, err)
		return
	}

	png, err := qrcode.EncodeDeepLink(link)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (oc *OrderController) SubmitUTR(c *gin.Context) {
	var body struct {
		UTR string `json:"utr"`
	}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	if err := oc.engine.SubmitUTR(c.Request.Context(), c.Param("orderId"), body.UTR); err != nil {
		abortWithOrderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "UTR received"})
}

func (oc *OrderController) Verify(c *gin.Context) {
	err := oc.engine.Verify(c.Request.Context(), c.Param("orderId"), middleware.CallerRole(c))
	if err != nil {
		abortWithOrderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verified"})
}

func (oc *OrderController) Cancel(c *gin.Context) {
	err := oc.engine.Cancel(c.Request.Context(), c.Param("orderId"), middleware.CallerRole(c))
	if err != nil {
		abortWithOrderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
}
