package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bakery/internal/accounts"
	"bakery/internal/catalog"
	models "bakery/internal/models"
	"bakery/internal/upload"
)

// Handler serves the JSON API.
type Handler struct {
	products  *catalog.Store
	users     *accounts.Store
	images    upload.Store
	logger    *zap.Logger
	publicURL string
}

func NewHandler(products *catalog.Store, users *accounts.Store, images upload.Store, logger *zap.Logger, publicURL string) *Handler {
	return &Handler{
		products:  products,
		users:     users,
		images:    images,
		logger:    logger,
		publicURL: publicURL,
	}
}

// Register mounts the API routes on g. g is expected to carry RequireToken.
func (h *Handler) Register(g gin.IRouter) {
	g.GET("/products", h.listProducts)
	g.POST("/products", h.createProduct)
	g.GET("/products/:name", h.getProduct)
	g.PUT("/products/:name", h.updateProduct)
	g.DELETE("/products/:name", h.deleteProduct)

	g.GET("/products/:name/reviews", h.listReviews)
	g.POST("/products/:name/reviews", h.createReview)

	g.GET("/products/:name/orders", h.listOrders)
	g.POST("/products/:name/orders", h.createOrder)
}

func (h *Handler) links(c *gin.Context) linker {
	return newLinker(c, h.publicURL)
}

// loadProduct resolves :name or writes the error response and returns nil.
func (h *Handler) loadProduct(c *gin.Context) *models.Product {
	name := c.Param("name")
	p, err := h.products.ProductByName(c.Request.Context(), name)
	if errors.Is(err, catalog.ErrNotFound) {
		abortErrors(c, http.StatusNotFound, notFound("name", "product"))
		return nil
	}
	if err != nil {
		h.logger.Error("load product", zap.String("name", name), zap.Error(err))
		serverError(c)
		return nil
	}
	return p
}

// formImage returns the uploaded "image" file, nil when none was sent, or
// an error entry when the extension is not allowed.
func formImage(c *gin.Context) (*multipart.FileHeader, *ErrorModel) {
	fh, err := c.FormFile("image")
	if err != nil || fh.Filename == "" {
		return nil, nil
	}
	if !upload.IsAllowed(fh.Filename) {
		return nil, &ErrorModel{Source: "image", Type: TypeImage, Description: upload.ErrNotAllowed.Error()}
	}
	return fh, nil
}

// saveImage stores fh, answering 500 itself on failure.
func (h *Handler) saveImage(c *gin.Context, fh *multipart.FileHeader) (string, bool) {
	url, err := h.images.Save(c, fh)
	if err != nil {
		h.logger.Error("save image", zap.String("filename", fh.Filename), zap.Error(err))
		abortErrors(c, http.StatusInternalServerError, ErrorModel{
			Source: "image", Type: TypeUpload, Description: "Could not save the image.",
		})
		return "", false
	}
	return url, true
}

// dropImage removes an uploaded file that is no longer referenced.
func (h *Handler) dropImage(url string) {
	if url == "" || url == models.DefaultImageURL {
		return
	}
	if err := h.images.Remove(url); err != nil {
		h.logger.Warn("remove image", zap.String("url", url), zap.Error(err))
	}
}

// userRef resolves an optional user id form value.
func (h *Handler) userRef(c *gin.Context, source, raw string) (*uint, *ErrorModel, error) {
	if raw == "" {
		return nil, nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		e := notFound(source, "user")
		return nil, &e, nil
	}
	u, err := h.users.ByID(c.Request.Context(), uint(id))
	if errors.Is(err, accounts.ErrNotFound) {
		e := notFound(source, "user")
		return nil, &e, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &u.ID, nil, nil
}
