package handle

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	AuthCookie = "auth"
	authMaxAge = 12 * time.Hour
)

var (
	publicPrefixes    = []string{"/login", "/api", "/analyze", "/health", "/healthz", "/favicon.ico", "/robots.txt"}
	protectedPrefixes = []string{"/hospital", "/patient"}
)

type loginRequest struct {
	LoginID  string `json:"loginId" form:"loginId"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}

type loginResponse struct {
	OK       bool   `json:"ok"`
	Role     string `json:"role"`
	Redirect string `json:"redirect"`
}

// Login handles POST /api/login. Form posts are answered with a 303 to the
// target page; JSON posts get the target in the body.
func (h *Handle) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return newAPIError(http.StatusBadRequest, "Invalid request", "Send loginId and password")
	}

	role, home := h.authenticate(strings.TrimSpace(req.LoginID), req.Password)
	if role == "" {
		h.log.WithField("login", req.LoginID).Info("login rejected")
		return newAPIError(http.StatusUnauthorized, "Invalid credentials", "")
	}

	c.SetCookie(&http.Cookie{
		Name:     AuthCookie,
		Value:    "true",
		Path:     "/",
		MaxAge:   int(authMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	target := home
	if next := safeNext(req.Next); next != "" {
		target = next
	}
	h.log.WithField("role", role).Info("login ok")

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusOK, loginResponse{OK: true, Role: role, Redirect: target})
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (h *Handle) authenticate(login, password string) (role, home string) {
	switch {
	case login == h.deps.Patient.Login && password == h.deps.Patient.Password:
		return "patient", "/patient"
	case login == h.deps.Hospital.Login && password == h.deps.Hospital.Password:
		return "hospital", "/hospital"
	}
	return "", ""
}

// safeNext only allows same-site absolute paths.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	return next
}

// Logout clears the cookie. GET redirects to /login, POST answers {ok:true}.
func (h *Handle) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{Name: AuthCookie, Value: "", Path: "/", MaxAge: -1})
	if c.Request().Method == http.MethodGet {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func isAuthed(c echo.Context) bool {
	ck, err := c.Cookie(AuthCookie)
	return err == nil && ck.Value == "true"
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// AuthGate redirects by cookie: "/" to the portal or login, protected pages
// to /login?next=..., and signed-in users away from /login.
func AuthGate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			authed := isAuthed(c)

			switch {
			case path == "/":
				if authed {
					return c.Redirect(http.StatusTemporaryRedirect, "/patient")
				}
				return c.Redirect(http.StatusTemporaryRedirect, "/login")
			case authed && path == "/login":
				return c.Redirect(http.StatusTemporaryRedirect, "/patient")
			case matchesPrefix(path, publicPrefixes):
				return next(c)
			case matchesPrefix(path, protectedPrefixes) && !authed:
				return c.Redirect(http.StatusTemporaryRedirect, "/login?next="+url.QueryEscape(path))
			}
			return next(c)
		}
	}
}
