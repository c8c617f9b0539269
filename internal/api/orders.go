package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"bakery/internal/catalog"
	models "bakery/internal/models"
)

type postOrderRequest struct {
	Quantity string `form:"quantity" validate:"omitempty,number"`
	UserID   string `form:"user_id" validate:"omitempty,number"`
}

func (h *Handler) listOrders(c *gin.Context) {
	p := h.loadProduct(c)
	if p == nil {
		return
	}
	items, err := h.products.ListOrders(c.Request.Context(), p.ID)
	if err != nil {
		h.logger.Error("list orders", zap.Uint("product_id", p.ID), zap.Error(err))
		serverError(c)
		return
	}

	l := h.links(c)
	page := catalog.Paginate(items, c.Query("start"), c.Query("end"))
	views := make([]OrderView, 0, len(page))
	for i := range page {
		views = append(views, l.orderView(p, &page[i]))
	}
	c.JSON(http.StatusOK, newPage(len(items), views))
}

func (h *Handler) createOrder(c *gin.Context) {
	p := h.loadProduct(c)
	if p == nil {
		return
	}

	var req postOrderRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		abortErrors(c, http.StatusBadRequest, validationErrors(err)...)
		return
	}
	errs := validationErrors(validate.Struct(req))

	quantity := 1
	if req.Quantity != "" && !hasSource(errs, "quantity") {
		n, err := strconv.Atoi(req.Quantity)
		switch {
		case err != nil:
			errs = append(errs, ErrorModel{Source: "quantity", Type: TypeInteger, Description: "value is not a valid integer"})
		case n < 1:
			errs = append(errs, rangeError("quantity", true, 1))
		default:
			quantity = n
		}
	}
	var user *uint
	if !hasSource(errs, "user_id") {
		var userErr *ErrorModel
		var err error
		user, userErr, err = h.userRef(c, "user_id", req.UserID)
		if err != nil {
			h.logger.Error("load order user", zap.Error(err))
			serverError(c)
			return
		}
		if userErr != nil {
			errs = append(errs, *userErr)
		}
	}
	if len(errs) > 0 {
		abortErrors(c, http.StatusBadRequest, errs...)
		return
	}

	order := models.Order{ProductID: p.ID, UserID: user, Quantity: quantity}
	err := h.products.PlaceOrder(c.Request.Context(), &order)
	if errors.Is(err, catalog.ErrNotFound) {
		abortErrors(c, http.StatusNotFound, notFound("name", "product"))
		return
	}
	if err != nil {
		h.logger.Error("error while placing order by api", zap.Uint("product_id", p.ID), zap.Error(err))
		serverError(c)
		return
	}
	c.JSON(http.StatusCreated, h.links(c).orderView(p, &order))
}
