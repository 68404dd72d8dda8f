package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/edusolve/internal/domain/auth"
)

// Index greets a signed-in user and sends everyone else to the login form.
func (h *Handler) Index(c *gin.Context) {
	email, ok := h.sessionEmail(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.HTML(http.StatusOK, "index.html", page{Title: "Welcome", Email: email})
}

// SignUpPage renders the registration form.
func (h *Handler) SignUpPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", page{Title: "Sign up"})
}

// SignUp registers an account and opens a session.
func (h *Handler) SignUp(c *gin.Context) {
	var req auth.SignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "signup.html", page{Title: "Sign up", Error: "invalid form"})
		return
	}
	result, err := h.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		httpErr := fromDomainError(err, http.StatusInternalServerError)
		h.logger.Warn("sign up failed", "code", httpErr.Code, "error", err)
		c.HTML(httpErr.Status, "signup.html", page{Title: "Sign up", Email: req.Email, DisplayName: req.DisplayName, Error: httpErr.Message})
		return
	}
	h.cookie.set(c, result.SessionID)
	c.Redirect(http.StatusSeeOther, "/")
}

// LoginPage renders the login form.
func (h *Handler) LoginPage(c *gin.Context) {
	if _, ok := h.sessionEmail(c); ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", page{Title: "Log in"})
}

// Login exchanges credentials for a session cookie.
func (h *Handler) Login(c *gin.Context) {
	var req auth.SignInRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", page{Title: "Log in", Error: "invalid form"})
		return
	}
	result, err := h.auth.SignIn(c.Request.Context(), req)
	if err != nil {
		httpErr := fromDomainError(err, http.StatusInternalServerError)
		h.logger.Warn("sign in failed", "code", httpErr.Code, "error", err)
		c.HTML(httpErr.Status, "login.html", page{Title: "Log in", Email: req.Email, Error: "invalid email or password"})
		return
	}
	h.cookie.set(c, result.SessionID)
	c.Redirect(http.StatusSeeOther, "/")
}

// ChangePasswordPage renders the password form for the signed-in user.
func (h *Handler) ChangePasswordPage(c *gin.Context) {
	email, ok := h.sessionEmail(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.HTML(http.StatusOK, "change_password.html", page{Title: "Change password", Email: email})
}

// ChangePassword updates the password of the signed-in user.
func (h *Handler) ChangePassword(c *gin.Context) {
	email, ok := h.sessionEmail(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	var req auth.ChangePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "change_password.html", page{Title: "Change password", Email: email, Error: "invalid form"})
		return
	}
	if req.Email == "" {
		req.Email = email
	}
	if err := h.auth.ChangePassword(c.Request.Context(), h.cookie.read(c), req); err != nil {
		httpErr := fromDomainError(err, http.StatusInternalServerError)
		h.logger.Warn("password change failed", "code", httpErr.Code, "error", err)
		c.HTML(httpErr.Status, "change_password.html", page{Title: "Change password", Email: email, Error: httpErr.Message})
		return
	}
	c.HTML(http.StatusOK, "change_password.html", page{Title: "Change password", Email: email, Notice: "Password updated."})
}

// Logout clears the session.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), h.cookie.read(c)); err != nil {
		h.logger.Warn("logout failed", "error", err)
	}
	h.cookie.clear(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) sessionEmail(c *gin.Context) (string, bool) {
	sessionID := h.cookie.read(c)
	if sessionID == "" {
		return "", false
	}
	email, ok, err := h.auth.SessionEmail(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Warn("session lookup failed", "error", err)
		return "", false
	}
	return email, ok
}
