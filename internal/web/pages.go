package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bakery/internal/accounts"
	"bakery/internal/catalog"
	"bakery/internal/links"
	"bakery/internal/sanitize"
	"bakery/internal/views"
)

func (h *Handler) index(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context(), catalog.SortPopular)
	if err != nil {
		h.logger.Error("list popular products", zap.Error(err))
		c.String(http.StatusInternalServerError, "Something went wrong")
		return
	}
	h.render(c, http.StatusOK, "index.tmpl", ViewData{"Title": "Home", "Products": products})
}

func (h *Handler) picture(c *gin.Context) {
	name := filepath.Base(c.Param("filename"))
	path := filepath.Join(h.pictures, name)
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		c.File(path)
		return
	}
	if name == "default.png" {
		c.Data(http.StatusOK, "image/png", views.DefaultImage)
		return
	}
	c.Status(http.StatusNotFound)
}

// ---------- registration ----------

func (h *Handler) registrationPage(c *gin.Context) {
	h.render(c, http.StatusOK, "registration.tmpl", ViewData{
		"Title": "Registration", "Form": RegistrationForm{}, "Errors": FormErrors{},
	})
}

func (h *Handler) register(c *gin.Context) {
	var form RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		h.render(c, http.StatusBadRequest, "registration.tmpl", ViewData{
			"Title": "Registration", "Form": form, "Errors": formErrors(err),
		})
		return
	}
	page := ViewData{"Title": "Registration", "Form": form, "Errors": FormErrors{}}

	u, err := h.users.Register(c.Request.Context(), accounts.Registration{
		Email:     form.Email,
		Password:  form.Password,
		FirstName: sanitize.Text(form.FirstName),
		LastName:  sanitize.Text(form.LastName),
		Address:   sanitize.Text(form.Address),
	})
	if errors.Is(err, accounts.ErrEmailTaken) {
		addFlash(c, "error", "Account with this email already exists")
		h.render(c, http.StatusOK, "registration.tmpl", page)
		return
	}
	if err != nil {
		h.logger.Error("error while adding user", zap.String("email", form.Email), zap.Error(err))
		addFlash(c, "error", "Something went wrong")
		h.render(c, http.StatusInternalServerError, "registration.tmpl", page)
		return
	}

	link := fmt.Sprintf("%sconfirm/%d/%s", links.Root(c, h.publicURL), u.ID, url.PathEscape(u.AccessKey))
	if form.RememberMe {
		link += "?remember=1"
	}
	if err := h.mail.Send("Confirmation from Bakery", u.Email, "confirm.tmpl", map[string]any{
		"Name": u.FullName(),
		"Link": link,
	}); err != nil {
		h.logger.Error("render confirmation mail", zap.Uint("user_id", u.ID), zap.Error(err))
	}

	addFlash(c, "success", "You have received a confirmation email")
	c.Redirect(http.StatusSeeOther, "/registration")
}

func (h *Handler) confirm(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "Wrong key or id")
		return
	}
	u, err := h.users.Confirm(c.Request.Context(), uint(id), c.Param("key"))
	if errors.Is(err, accounts.ErrWrongKey) {
		c.String(http.StatusNotFound, "Wrong key or id")
		return
	}
	if err != nil {
		h.logger.Error("error while confirming email", zap.Uint64("user_id", id), zap.Error(err))
		c.String(http.StatusInternalServerError, "Something went wrong")
		return
	}
	if err := logIn(c, u, c.Query("remember") != ""); err != nil {
		h.logger.Error("save session", zap.Error(err))
		c.String(http.StatusInternalServerError, "Something went wrong")
		return
	}
	c.String(http.StatusOK, "Success!")
}

// ---------- login ----------

func (h *Handler) loginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.tmpl", ViewData{
		"Title": "Sign in", "Form": LoginForm{}, "Errors": FormErrors{}, "Next": c.Query("next"),
	})
}

func (h *Handler) login(c *gin.Context) {
	next := safeNext(c.Query("next"))
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		h.render(c, http.StatusBadRequest, "login.tmpl", ViewData{
			"Title": "Sign in", "Form": form, "Errors": formErrors(err), "Next": next,
		})
		return
	}
	password := form.Password
	form.Password = ""
	page := ViewData{"Title": "Sign in", "Form": form, "Errors": FormErrors{}, "Next": next}

	u, err := h.users.Authenticate(c.Request.Context(), form.Email, password)
	switch {
	case errors.Is(err, accounts.ErrBadLogin):
		addFlash(c, "error", "Wrong email or password")
		h.render(c, http.StatusUnauthorized, "login.tmpl", page)
		return
	case errors.Is(err, accounts.ErrNotVerified):
		addFlash(c, "error", "Your email is not verified")
		h.render(c, http.StatusForbidden, "login.tmpl", page)
		return
	case err != nil:
		h.logger.Error("error while signing in", zap.String("email", form.Email), zap.Error(err))
		addFlash(c, "error", "Something went wrong")
		h.render(c, http.StatusInternalServerError, "login.tmpl", page)
		return
	}

	if err := logIn(c, u, form.RememberMe); err != nil {
		h.logger.Error("save session", zap.Error(err))
		c.String(http.StatusInternalServerError, "Something went wrong")
		return
	}
	c.Redirect(http.StatusSeeOther, next)
}

func (h *Handler) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = sess.Save()
	c.Redirect(http.StatusSeeOther, "/")
}
