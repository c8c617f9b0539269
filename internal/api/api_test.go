package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bakery/internal/accounts"
	"bakery/internal/auth"
	"bakery/internal/catalog"
	mydb "bakery/internal/db"
	models "bakery/internal/models"
	"bakery/internal/upload"
)

const (
	testSecret = "test-secret"
	testPass   = "test-pass"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	dir    string
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := mydb.OpenMemory()
	require.NoError(t, err)
	dir := t.TempDir()

	h := NewHandler(catalog.NewStore(db), accounts.NewStore(db), upload.Store{Dir: dir}, zap.NewNop(), "")
	r := gin.New()
	h.Register(r.Group(Prefix, RequireToken(testSecret, testPass)))

	token, err := auth.IssueToken(testSecret, testPass, time.Hour)
	require.NoError(t, err)
	return &testAPI{t: t, router: r, db: db, dir: dir, token: token}
}

type file struct {
	name    string
	content string
}

func (a *testAPI) do(method, path string, fields map[string]string, img *file) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	contentType := ""
	if img != nil {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range fields {
			require.NoError(a.t, w.WriteField(k, v))
		}
		part, err := w.CreateFormFile("image", img.name)
		require.NoError(a.t, err)
		_, err = part.Write([]byte(img.content))
		require.NoError(a.t, err)
		require.NoError(a.t, w.Close())
		body, contentType = &buf, w.FormDataContentType()
	} else if fields != nil {
		form := url.Values{}
		for k, v := range fields {
			form.Set(k, v)
		}
		body, contentType = strings.NewReader(form.Encode()), "application/x-www-form-urlencoded"
	}

	req := httptest.NewRequest(method, path, body)
	req.Host = "bakery.test"
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) createProduct(name, price string, sales int) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/products", map[string]string{"name": name, "price": price}, nil)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	if sales > 0 {
		require.NoError(a.t, a.db.Model(&models.Product{}).Where("name = ?", name).Update("sales", sales).Error)
	}
}

func TestTokenRequired(t *testing.T) {
	a := newTestAPI(t)

	for _, header := range []string{"", "Bearer", "Bearer garbage", "Bearer " + mustToken(t, "other-secret", testPass)} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		errs := decode[[]ErrorModel](t, w)
		require.Len(t, errs, 1)
		assert.Equal(t, errToken, errs[0])
	}
}

func mustToken(t *testing.T, secret, pass string) string {
	tok, err := auth.IssueToken(secret, pass, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestCreateProduct(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/api/v1/products", map[string]string{
		"name":        "Apple pie",
		"price":       "4.5",
		"description": "<b>Warm</b> & sweet",
	}, &file{name: "pie.png", content: "png"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	v := decode[ProductView](t, w)
	assert.Equal(t, "Apple pie", v.Name)
	assert.Equal(t, 4.5, v.Price)
	assert.Equal(t, 0, v.Sales)
	assert.Equal(t, "Warm & sweet", v.Description)
	assert.Equal(t, "http://bakery.test/api/v1/products/Apple%20pie", v.Links["self"].Href)
	assert.Equal(t, "http://bakery.test/api/v1/products/Apple%20pie/reviews", v.Links["reviews"].Href)
	assert.Equal(t, "http://bakery.test/api/v1/products/Apple%20pie/orders", v.Links["orders"].Href)

	img := v.Embedded["image"].Links["self"].Href
	require.True(t, strings.HasPrefix(img, "http://bakery.test/pictures/"), img)
	assert.True(t, strings.HasSuffix(img, "_pie.png"))
	_, err := os.Stat(filepath.Join(a.dir, strings.TrimPrefix(img, "http://bakery.test/pictures/")))
	assert.NoError(t, err)
}

func TestCreateProductDefaultsImageAndOmitsEmptyDescription(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/api/v1/products", map[string]string{"name": "Bun", "price": "1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	raw := decode[map[string]any](t, w)
	_, has := raw["description"]
	assert.False(t, has)
	v := decode[ProductView](t, w)
	assert.Equal(t, "http://bakery.test/pictures/default.png", v.Embedded["image"].Links["self"].Href)
}

func TestCreateProductValidation(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/api/v1/products", map[string]string{
		"name":  strings.Repeat("x", 101),
		"price": "cheap",
	}, &file{name: "pie.gif", content: "gif"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	errs := decode[[]ErrorModel](t, w)
	byType := map[string]ErrorModel{}
	for _, e := range errs {
		byType[e.Source] = e
	}
	require.Len(t, byType, 3, errs)
	assert.Equal(t, TypeMaxLength, byType["name"].Type)
	assert.Equal(t, "ensure this value has at most 100 characters", byType["name"].Description)
	assert.Equal(t, TypeFloat, byType["price"].Type)
	assert.Equal(t, TypeImage, byType["image"].Type)
	assert.Equal(t, "extension is not allowed. Please upload only .png or .jpg files.", byType["image"].Description)

	entries, err := os.ReadDir(a.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateProductMissingFields(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/api/v1/products", map[string]string{"description": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[[]ErrorModel](t, w)
	assert.ElementsMatch(t, []ErrorModel{
		{Source: "name", Type: TypeMissing, Description: "field required"},
		{Source: "price", Type: TypeMissing, Description: "field required"},
	}, errs)
}

func TestCreateProductRejectsNegativePriceAndDuplicates(t *testing.T) {
	a := newTestAPI(t)
	a.createProduct("Bun", "1", 0)

	w := a.do(http.MethodPost, "/api/v1/products", map[string]string{"name": "Bun", "price": "-2"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[[]ErrorModel](t, w)
	assert.ElementsMatch(t, []string{TypeAlreadyExists, TypeNotGE}, []string{errs[0].Type, errs[1].Type})
}

func TestListProducts(t *testing.T) {
	a := newTestAPI(t)
	a.createProduct("Croissant", "2.50", 40)
	a.createProduct("Baguette", "1.20", 90)
	a.createProduct("Eclair", "3.75", 5)

	list := func(query string) Page[ProductView] {
		w := a.do(http.MethodGet, "/api/v1/products"+query, nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode[Page[ProductView]](t, w)
	}
	names := func(p Page[ProductView]) []string {
		out := []string{}
		for _, v := range p.Items {
			out = append(out, v.Name)
		}
		return out
	}

	all := list("")
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, 3, all.ItemsCount)
	assert.Equal(t, []string{"Croissant", "Baguette", "Eclair"}, names(all))

	assert.Equal(t, []string{"Eclair", "Croissant", "Baguette"}, names(list("?sort=desc_price")))
	assert.Equal(t, []string{"Baguette", "Croissant", "Eclair"}, names(list("?sort=asc_price")))
	assert.Equal(t, []string{"Baguette", "Croissant", "Eclair"}, names(list("?sort=popular")))
	assert.Equal(t, []string{"Baguette", "Croissant", "Eclair"}, names(list("?sort=alphabet")))

	page := list("?sort=alphabet&start=2&end=3")
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.ItemsCount)
	assert.Equal(t, []string{"Croissant", "Eclair"}, names(page))

	assert.Equal(t, []string{"Eclair"}, names(list("?start=0")))
	empty := list("?start=3&end=1")
	assert.Equal(t, 0, empty.ItemsCount)
	assert.NotNil(t, empty.Items)
}

func TestGetProduct(t *testing.T) {
	a := newTestAPI(t)
	a.createProduct("Apple pie", "4.5", 0)

	w := a.do(http.MethodGet, "/api/v1/products/Apple%20pie", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Apple pie", decode[ProductView](t, w).Name)

	w = a.do(http.MethodGet, "/api/v1/products/Strudel", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	errs := decode[[]ErrorModel](t, w)
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Source)
	assert.Equal(t, TypeNotFound, errs[0].Type)
}

func TestUpdateProduct(t *testing.T) {
	a := newTestAPI(t)
	a.createProduct("Bun", "1", 0)
	a.createProduct("Roll", "1", 0)

	w := a.do(http.MethodPut, "/api/v1/products/Bun", map[string]string{"price": "1.99", "description": "soft"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v := decode[ProductView](t, w)
	assert.Equal(t, "Bun", v.Name)
	assert.Equal(t, 1.99, v.Price)
	assert.Equal(t, "soft", v.Description)

	w = a.do(http.MethodPut, "/api/v1/products/Bun", map[string]string{"name": "Roll"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, TypeAlreadyExists, decode[[]ErrorModel](t, w)[0].Type)

	w = a.do(http.MethodPut, "/api/v1/products/Bun", map[string]string{"name": "Sweet bun"}, &file{name: "bun.jpg", content: "jpg"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v = decode[ProductView](t, w)
	assert.Equal(t, "Sweet bun", v.Name)
	assert.True(t, strings.HasSuffix(v.Embedded["image"].Links["self"].Href, "_bun.jpg"))

	w = a.do(http.MethodGet, "/api/v1/products/Bun", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// replacing the picture removes the old file
	first := strings.TrimPrefix(v.Embedded["image"].Links["self"].Href, "http://bakery.test/pictures/")
	w = a.do(http.MethodPut, "/api/v1/products/Sweet%20bun", nil, &file{name: "bun2.png", content: "png"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, err := os.Stat(filepath.Join(a.dir, first))
	assert.True(t, os.IsNotExist(err))

	w = a.do(http.MethodPut, "/api/v1/products/Sweet%20bun", map[string]string{"price": "abc"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, TypeFloat, decode[[]ErrorModel](t, w)[0].Type)
}

func TestDeleteProductCascades(t *testing.T) {
	a := newTestAPI(t)
	a.createProduct("Bun", "1", 0)

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/products/Bun/reviews", map[string]string{"rating": "5"}, nil).Code)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/products/Bun/orders", map[string]string{"quantity": "2"}, nil).Code)

	w := a.do(http.MethodDelete, "/api/v1/products/Bun", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Bun", decode[ProductView](t, w).Name)

	var cnt int64
	a.db.Model(&models.Review{}).Count(&cnt)
	assert.Zero(t, cnt)
	a.db.Model(&models.Order{}).Count(&cnt)
	assert.Zero(t, cnt)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/v1/products/Bun", nil, nil).Code)
}

func TestReviews(t *testing.T) {
	a := newTestAPI(t)
	a.createProduct("Bun", "1", 0)

	owner := models.User{Email: "ann@example.com", PasswordHash: "x", AccessKey: "k", FirstName: "Ann", LastName: "Baker"}
	require.NoError(t, a.db.Create(&owner).Error)

	w := a.do(http.MethodPost, "/api/v1/products/Bun/reviews", map[string]string{
		"rating":   "4",
		"text":     "Lovely <i>crumb</i>",
		"owner_id": "1",
	}, &file{name: "crumb.jpg", content: "jpg"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decode[ReviewView](t, w)
	assert.Equal(t, 4, v.Rating)
	assert.Equal(t, "Lovely crumb", v.Text)
	require.NotNil(t, v.OwnerID)
	assert.Equal(t, owner.ID, *v.OwnerID)
	assert.Equal(t, "http://bakery.test/api/v1/products/Bun", v.Links["product"].Href)
	assert.Contains(t, v.Embedded, "image")

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/products/Bun/reviews", map[string]string{"rating": "2"}, nil).Code)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/products/Bun/reviews", map[string]string{"rating": "5"}, nil).Code)

	w = a.do(http.MethodGet, "/api/v1/products/Bun/reviews?sort=best", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[Page[ReviewView]](t, w)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []int{5, 4, 2}, []int{page.Items[0].Rating, page.Items[1].Rating, page.Items[2].Rating})
	assert.NotContains(t, page.Items[0].Embedded, "image")

	w = a.do(http.MethodGet, "/api/v1/products/Bun/reviews?sort=worst&end=1", nil, nil)
	page = decode[Page[ReviewView]](t, w)
	assert.Equal(t, 1, page.ItemsCount)
	assert.Equal(t, 2, page.Items[0].Rating)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/v1/products/Nope/reviews", nil, nil).Code)
}

func TestReviewValidation(t *testing.T) {
	a := newTestAPI(t)
	a.createProduct("Bun", "1", 0)

	cases := []struct {
		fields map[string]string
		source string
		typ    string
	}{
		{map[string]string{}, "rating", TypeMissing},
		{map[string]string{"rating": "great"}, "rating", TypeInteger},
		{map[string]string{"rating": "0"}, "rating", TypeNotGE},
		{map[string]string{"rating": "6"}, "rating", TypeNotLE},
		{map[string]string{"rating": "5", "owner_id": "77"}, "owner_id", TypeNotFound},
		{map[string]string{"rating": "5", "owner_id": "me"}, "owner_id", TypeInteger},
	}
	for _, tc := range cases {
		w := a.do(http.MethodPost, "/api/v1/products/Bun/reviews", tc.fields, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.fields)
		errs := decode[[]ErrorModel](t, w)
		require.Len(t, errs, 1, tc.fields)
		assert.Equal(t, tc.source, errs[0].Source, tc.fields)
		assert.Equal(t, tc.typ, errs[0].Type, tc.fields)
	}
}

func TestOrders(t *testing.T) {
	a := newTestAPI(t)
	a.createProduct("Bun", "1", 0)

	w := a.do(http.MethodPost, "/api/v1/products/Bun/orders", map[string]string{"quantity": "3"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 3, decode[OrderView](t, w).Quantity)

	w = a.do(http.MethodPost, "/api/v1/products/Bun/orders", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[OrderView](t, w).Quantity)

	w = a.do(http.MethodPost, "/api/v1/products/Bun/orders", map[string]string{"quantity": "0"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, TypeNotGE, decode[[]ErrorModel](t, w)[0].Type)

	w = a.do(http.MethodGet, "/api/v1/products/Bun", nil, nil)
	assert.Equal(t, 4, decode[ProductView](t, w).Sales)

	w = a.do(http.MethodGet, "/api/v1/products/Bun/orders", nil, nil)
	page := decode[Page[OrderView]](t, w)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "http://bakery.test/api/v1/products/Bun", page.Items[0].Links["product"].Href)
}

func TestPublicURLOverridesHost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	l := newLinker(c, "https://shop.example/")
	assert.Equal(t, "https://shop.example/api/v1/products/Bun", l.product("Bun"))
	assert.Equal(t, "https://cdn.example/x.png", l.abs("https://cdn.example/x.png"))

	c.Request.Header.Set("X-Forwarded-Proto", "https")
	c.Request.Host = "bakery.test"
	assert.Equal(t, "https://bakery.test/pictures/a.png", newLinker(c, "").abs("/pictures/a.png"))
}

func TestUpdateProductKeepsSalesFromOrders(t *testing.T) {
	a := newTestAPI(t)
	a.createProduct("Bun", "1", 0)

	w := a.do(http.MethodPost, "/api/v1/products/Bun/orders", map[string]string{"quantity": "7"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPut, "/api/v1/products/Bun", map[string]string{"description": "soft"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 7, decode[ProductView](t, w).Sales)

	var p models.Product
	require.NoError(t, a.db.Where("name = ?", "Bun").First(&p).Error)
	assert.Equal(t, 7, p.Sales)
}

func TestPriceUpperBound(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/api/v1/products", map[string]string{"name": "Wedding cake", "price": "100000000"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[[]ErrorModel](t, w)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorModel{
		Source:      "price",
		Type:        TypeNotLE,
		Description: "ensure this value is less than or equal to 99999999.99",
	}, errs[0])

	a.createProduct("Wedding cake", "99999999.99", 0)
	w = a.do(http.MethodPut, "/api/v1/products/Wedding%20cake", map[string]string{"price": "123456789"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, TypeNotLE, decode[[]ErrorModel](t, w)[0].Type)
}

func TestLongImageNameFitsColumn(t *testing.T) {
	a := newTestAPI(t)
	name := strings.Repeat("a", 70) + ".png"

	w := a.do(http.MethodPost, "/api/v1/products", map[string]string{"name": "Bun", "price": "1"}, &file{name: name, content: "png"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p models.Product
	require.NoError(t, a.db.Where("name = ?", "Bun").First(&p).Error)
	assert.LessOrEqual(t, len(p.ImageURL), upload.MaxURLLen)
	assert.True(t, strings.HasSuffix(p.ImageURL, ".png"))
}
