package web

import (
	"encoding/gob"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bakery/internal/accounts"
	"bakery/internal/catalog"
	"bakery/internal/mailer"
	models "bakery/internal/models"
)

type ViewData map[string]any

const (
	userKey        = "user_id"
	rememberMaxAge = 30 * 24 * time.Hour
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// Handler serves the HTML pages.
type Handler struct {
	users     *accounts.Store
	products  *catalog.Store
	mail      *mailer.Mailer
	pictures  string
	logger    *zap.Logger
	publicURL string
}

func NewHandler(users *accounts.Store, products *catalog.Store, mail *mailer.Mailer, pictures string, logger *zap.Logger, publicURL string) *Handler {
	return &Handler{
		users:     users,
		products:  products,
		mail:      mail,
		pictures:  pictures,
		logger:    logger,
		publicURL: publicURL,
	}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.mustLogin(), h.index)
	r.GET("/pictures/:filename", h.picture)

	r.GET("/registration", h.registrationPage)
	r.POST("/registration", h.register)
	r.GET("/confirm/:id/:key", h.confirm)

	r.GET("/login", h.loginPage)
	r.POST("/login", h.login)
	r.GET("/logout", h.logout)
}

// ---------- session helpers ----------

func addFlash(c *gin.Context, category, message string) {
	sess := sessions.Default(c)
	sess.AddFlash(Flash{Category: category, Message: message})
	_ = sess.Save()
}

func popFlashes(c *gin.Context) []Flash {
	sess := sessions.Default(c)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save()
	out := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if fl, ok := f.(Flash); ok {
			out = append(out, fl)
		}
	}
	return out
}

// currentUser returns the logged in user, or nil.
func (h *Handler) currentUser(c *gin.Context) *models.User {
	if u, ok := c.Get("currentUser"); ok {
		return u.(*models.User)
	}
	sess := sessions.Default(c)
	id, ok := sess.Get(userKey).(uint)
	if !ok {
		return nil
	}
	u, err := h.users.ByID(c.Request.Context(), id)
	if err != nil {
		sess.Delete(userKey)
		_ = sess.Save()
		return nil
	}
	c.Set("currentUser", u)
	return u
}

func logIn(c *gin.Context, u *models.User, remember bool) error {
	sess := sessions.Default(c)
	opts := sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}
	if remember {
		opts.MaxAge = int(rememberMaxAge.Seconds())
	}
	sess.Options(opts)
	sess.Set(userKey, u.ID)
	return sess.Save()
}

func (h *Handler) withUser(c *gin.Context, data ViewData) ViewData {
	if data == nil {
		data = ViewData{}
	}
	if u := h.currentUser(c); u != nil {
		data["User"] = u
	}
	data["Flashes"] = popFlashes(c)
	return data
}

func (h *Handler) render(c *gin.Context, status int, name string, data ViewData) {
	c.HTML(status, name, h.withUser(c, data))
}

// mustLogin redirects anonymous visitors to the login page.
func (h *Handler) mustLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.currentUser(c) == nil {
			addFlash(c, "error", "Sign in to access restricted pages")
			c.Redirect(http.StatusSeeOther, "/login?next="+c.Request.URL.EscapedPath())
			c.Abort()
			return
		}
		c.Next()
	}
}

// safeNext only allows local redirects.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
