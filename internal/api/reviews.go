package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"bakery/internal/catalog"
	models "bakery/internal/models"
	"bakery/internal/sanitize"
)

const (
	minRating = 1
	maxRating = 5
)

type postReviewRequest struct {
	Rating  string  `form:"rating" validate:"required,number"`
	Text    *string `form:"text"`
	OwnerID string  `form:"owner_id" validate:"omitempty,number"`
}

func (h *Handler) listReviews(c *gin.Context) {
	p := h.loadProduct(c)
	if p == nil {
		return
	}
	items, err := h.products.ListReviews(c.Request.Context(), p.ID, catalog.ReviewSort(c.Query("sort")))
	if err != nil {
		h.logger.Error("list reviews", zap.Uint("product_id", p.ID), zap.Error(err))
		serverError(c)
		return
	}

	l := h.links(c)
	page := catalog.Paginate(items, c.Query("start"), c.Query("end"))
	views := make([]ReviewView, 0, len(page))
	for i := range page {
		views = append(views, l.reviewView(p, &page[i]))
	}
	c.JSON(http.StatusOK, newPage(len(items), views))
}

func (h *Handler) createReview(c *gin.Context) {
	p := h.loadProduct(c)
	if p == nil {
		return
	}

	var req postReviewRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		abortErrors(c, http.StatusBadRequest, validationErrors(err)...)
		return
	}
	errs := validationErrors(validate.Struct(req))

	rating := 0
	if !hasSource(errs, "rating") {
		n, err := strconv.Atoi(req.Rating)
		switch {
		case err != nil || n > maxRating:
			errs = append(errs, rangeError("rating", false, maxRating))
		case n < minRating:
			errs = append(errs, rangeError("rating", true, minRating))
		default:
			rating = n
		}
	}
	var owner *uint
	if !hasSource(errs, "owner_id") {
		var ownerErr *ErrorModel
		var err error
		owner, ownerErr, err = h.userRef(c, "owner_id", req.OwnerID)
		if err != nil {
			h.logger.Error("load review owner", zap.Error(err))
			serverError(c)
			return
		}
		if ownerErr != nil {
			errs = append(errs, *ownerErr)
		}
	}
	image, imgErr := formImage(c)
	if imgErr != nil {
		errs = append(errs, *imgErr)
	}
	if len(errs) > 0 {
		abortErrors(c, http.StatusBadRequest, errs...)
		return
	}

	review := models.Review{ProductID: p.ID, OwnerID: owner, Rating: rating}
	if req.Text != nil {
		review.Text = sanitize.Text(*req.Text)
	}
	if image != nil {
		url, ok := h.saveImage(c, image)
		if !ok {
			return
		}
		review.ImageURL = &url
	}

	if err := h.products.CreateReview(c.Request.Context(), &review); err != nil {
		h.logger.Error("error while adding review by api", zap.Uint("product_id", p.ID), zap.Error(err))
		if review.ImageURL != nil {
			h.dropImage(*review.ImageURL)
		}
		serverError(c)
		return
	}
	c.JSON(http.StatusCreated, h.links(c).reviewView(p, &review))
}
