package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bakery/internal/catalog"
	"bakery/internal/metrics"
	models "bakery/internal/models"
	"bakery/internal/sanitize"
)

type postProductRequest struct {
	Name        string  `form:"name" validate:"required,max=100"`
	Description *string `form:"description"`
	Price       string  `form:"price" validate:"required,numeric"`
}

type putProductRequest struct {
	Name        *string `form:"name" validate:"omitempty,max=100"`
	Description *string `form:"description"`
	Price       *string `form:"price" validate:"omitempty,numeric"`
}

// maxPrice is the largest value a numeric(10,2) column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

// parsePrice converts an already validated numeric string.
func parsePrice(raw string) (decimal.Decimal, *ErrorModel) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ErrorModel{Source: "price", Type: TypeFloat, Description: "value is not a valid float"}
	}
	if d.IsNegative() {
		e := rangeError("price", true, 0)
		return decimal.Zero, &e
	}
	d = d.Round(2)
	if d.GreaterThan(maxPrice) {
		return decimal.Zero, &ErrorModel{
			Source:      "price",
			Type:        TypeNotLE,
			Description: "ensure this value is less than or equal to " + maxPrice.StringFixed(2),
		}
	}
	return d, nil
}

func (h *Handler) listProducts(c *gin.Context) {
	items, err := h.products.ListProducts(c.Request.Context(), catalog.ProductSort(c.Query("sort")))
	if err != nil {
		h.logger.Error("list products", zap.Error(err))
		serverError(c)
		return
	}

	l := h.links(c)
	page := catalog.Paginate(items, c.Query("start"), c.Query("end"))
	views := make([]ProductView, 0, len(page))
	for i := range page {
		views = append(views, l.productView(&page[i]))
	}
	c.JSON(http.StatusOK, newPage(len(items), views))
}

func (h *Handler) getProduct(c *gin.Context) {
	p := h.loadProduct(c)
	if p == nil {
		return
	}
	c.JSON(http.StatusOK, h.links(c).productView(p))
}

func (h *Handler) createProduct(c *gin.Context) {
	ctx := c.Request.Context()
	var req postProductRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		abortErrors(c, http.StatusBadRequest, validationErrors(err)...)
		return
	}

	errs := validationErrors(validate.Struct(req))
	var price decimal.Decimal
	if !hasSource(errs, "price") {
		var perr *ErrorModel
		if price, perr = parsePrice(req.Price); perr != nil {
			errs = append(errs, *perr)
		}
	}
	image, imgErr := formImage(c)
	if imgErr != nil {
		errs = append(errs, *imgErr)
	}
	if !hasSource(errs, "name") {
		taken, err := h.products.NameTaken(ctx, req.Name, 0)
		if err != nil {
			h.logger.Error("check product name", zap.Error(err))
			serverError(c)
			return
		}
		if taken {
			errs = append(errs, ErrorModel{Source: "name", Type: TypeAlreadyExists, Description: "product with this name already exists"})
		}
	}
	if len(errs) > 0 {
		abortErrors(c, http.StatusBadRequest, errs...)
		return
	}

	product := models.Product{Name: req.Name, Price: price, ImageURL: models.DefaultImageURL}
	if req.Description != nil {
		product.Description = sanitize.Text(*req.Description)
	}
	if image != nil {
		url, ok := h.saveImage(c, image)
		if !ok {
			return
		}
		product.ImageURL = url
	}

	if err := h.products.CreateProduct(ctx, &product); err != nil {
		h.logger.Error("error while adding product by api", zap.String("name", product.Name), zap.Error(err))
		h.dropImage(product.ImageURL)
		serverError(c)
		return
	}
	metrics.ProductsCreated.Inc()
	c.JSON(http.StatusCreated, h.links(c).productView(&product))
}

func (h *Handler) updateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	p := h.loadProduct(c)
	if p == nil {
		return
	}

	var req putProductRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		abortErrors(c, http.StatusBadRequest, validationErrors(err)...)
		return
	}
	errs := validationErrors(validate.Struct(req))

	updated := *p
	if req.Price != nil && *req.Price != "" && !hasSource(errs, "price") {
		price, perr := parsePrice(*req.Price)
		if perr != nil {
			errs = append(errs, *perr)
		}
		updated.Price = price
	}
	if req.Name != nil && *req.Name != "" && *req.Name != p.Name && !hasSource(errs, "name") {
		taken, err := h.products.NameTaken(ctx, *req.Name, p.ID)
		if err != nil {
			h.logger.Error("check product name", zap.Error(err))
			serverError(c)
			return
		}
		if taken {
			errs = append(errs, ErrorModel{Source: "name", Type: TypeAlreadyExists, Description: "product with this name already exists"})
		}
		updated.Name = *req.Name
	}
	image, imgErr := formImage(c)
	if imgErr != nil {
		errs = append(errs, *imgErr)
	}
	if len(errs) > 0 {
		abortErrors(c, http.StatusBadRequest, errs...)
		return
	}

	if req.Description != nil {
		updated.Description = sanitize.Text(*req.Description)
	}
	if image != nil {
		url, ok := h.saveImage(c, image)
		if !ok {
			return
		}
		updated.ImageURL = url
	}

	if err := h.products.SaveProduct(ctx, &updated); err != nil {
		if updated.ImageURL != p.ImageURL {
			h.dropImage(updated.ImageURL)
		}
		if errors.Is(err, catalog.ErrNotFound) {
			abortErrors(c, http.StatusNotFound, notFound("name", "product"))
			return
		}
		h.logger.Error("error while updating product by api", zap.Uint("id", p.ID), zap.Error(err))
		serverError(c)
		return
	}
	if updated.ImageURL != p.ImageURL {
		h.dropImage(p.ImageURL)
	}
	// sales may have moved since the product was loaded
	if fresh, err := h.products.ProductByName(ctx, updated.Name); err == nil {
		updated = *fresh
	}
	c.JSON(http.StatusOK, h.links(c).productView(&updated))
}

func (h *Handler) deleteProduct(c *gin.Context) {
	p := h.loadProduct(c)
	if p == nil {
		return
	}
	if err := h.products.DeleteProduct(c.Request.Context(), p); err != nil {
		h.logger.Error("error while deleting product by api", zap.Uint("id", p.ID), zap.Error(err))
		serverError(c)
		return
	}
	h.dropImage(p.ImageURL)
	c.JSON(http.StatusOK, h.links(c).productView(p))
}

func hasSource(errs []ErrorModel, source string) bool {
	for _, e := range errs {
		if e.Source == source {
			return true
		}
	}
	return false
}
