package handlers

import (
	"net/http"

	"sportivox/models"
	"sportivox/services/coupon"
	"sportivox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CouponHandler serves coupon lookup and the admin coupon endpoints.
type CouponHandler struct {
	Service *coupon.Service
}

func NewCouponHandler(svc *coupon.Service) *CouponHandler {
	return &CouponHandler{Service: svc}
}

// GetCoupons looks up ?code= when given, otherwise lists every coupon.
// An unknown code answers 200 with an empty object.
func (h *CouponHandler) GetCoupons(c *gin.Context) {
	if code, ok := c.GetQuery("code"); ok {
		found, err := h.Service.Lookup(c.Request.Context(), code)
		if err != nil {
			getLogger(c).Error("coupon lookup failed", zap.Error(err))
			respondError(c, err)
			return
		}
		if found == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, found)
		return
	}

	coupons, err := h.Service.List(c.Request.Context())
	if err != nil {
		getLogger(c).Error("failed to list coupons", zap.Error(err))
		respondError(c, err)
		return
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	c.JSON(http.StatusOK, coupons)
}

// CreateCoupon adds a coupon (admin).
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var input coupon.CreateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	created, err := h.Service.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// DeleteCoupon removes a coupon (admin).
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
