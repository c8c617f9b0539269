package api

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bakery/internal/links"
	models "bakery/internal/models"
)

// Prefix is where the API is mounted.
const Prefix = "/api/v1"

type Link struct {
	Href string `json:"href"`
}

type Links map[string]Link

// Embedded is a linked sub-resource, e.g. the product image.
type Embedded struct {
	Links Links `json:"_links"`
}

type ProductView struct {
	Name        string              `json:"name"`
	Price       float64             `json:"price"`
	Sales       int                 `json:"sales"`
	Description string              `json:"description,omitempty"`
	Links       Links               `json:"_links"`
	Embedded    map[string]Embedded `json:"_embedded"`
}

type ReviewView struct {
	ID        uint                `json:"id"`
	Rating    int                 `json:"rating"`
	Text      string              `json:"text,omitempty"`
	OwnerID   *uint               `json:"owner_id,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Links     Links               `json:"_links"`
	Embedded  map[string]Embedded `json:"_embedded,omitempty"`
}

type OrderView struct {
	ID        uint      `json:"id"`
	Quantity  int       `json:"quantity"`
	UserID    *uint     `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Links     Links     `json:"_links"`
}

// Page is a sliced listing.
type Page[T any] struct {
	Total      int `json:"total"`
	ItemsCount int `json:"items_count"`
	Items      []T `json:"items"`
}

func newPage[T any](total int, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Total: total, ItemsCount: len(items), Items: items}
}

// linker builds absolute hrefs from the request root URL.
type linker struct {
	root string // always ends with "/"
}

func newLinker(c *gin.Context, publicURL string) linker {
	return linker{root: links.Root(c, publicURL)}
}

func (l linker) abs(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return l.root + strings.TrimPrefix(path, "/")
}

func (l linker) product(name string) string {
	return l.abs(Prefix + "/products/" + url.PathEscape(name))
}

func (l linker) image(imageURL string) map[string]Embedded {
	return map[string]Embedded{
		"image": {Links: Links{"self": {Href: l.abs(imageURL)}}},
	}
}

func (l linker) productView(p *models.Product) ProductView {
	self := l.product(p.Name)
	return ProductView{
		Name:        p.Name,
		Price:       p.Price.InexactFloat64(),
		Sales:       p.Sales,
		Description: p.Description,
		Links: Links{
			"self":    {Href: self},
			"reviews": {Href: self + "/reviews"},
			"orders":  {Href: self + "/orders"},
		},
		Embedded: l.image(p.ImageURL),
	}
}

func (l linker) reviewView(p *models.Product, r *models.Review) ReviewView {
	product := l.product(p.Name)
	v := ReviewView{
		ID:        r.ID,
		Rating:    r.Rating,
		Text:      r.Text,
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt,
		Links: Links{
			"self":    {Href: product + "/reviews" + r.Fragment()},
			"product": {Href: product},
		},
	}
	if r.ImageURL != nil && *r.ImageURL != "" {
		v.Embedded = l.image(*r.ImageURL)
	}
	return v
}

func (l linker) orderView(p *models.Product, o *models.Order) OrderView {
	product := l.product(p.Name)
	return OrderView{
		ID:        o.ID,
		Quantity:  o.Quantity,
		UserID:    o.UserID,
		CreatedAt: o.CreatedAt,
		Links: Links{
			"self":    {Href: product + "/orders" + o.Fragment()},
			"product": {Href: product},
		},
	}
}
