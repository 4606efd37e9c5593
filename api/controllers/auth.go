package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/dnadiscipleship/dna-backend/api/middleware"
	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/api/validators"
	"github.com/dnadiscipleship/dna-backend/internal/auth"
	"github.com/dnadiscipleship/dna-backend/pkg/config"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type magicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RequestMagicLink mails a one-time login link. The response is the same
// whether or not the address is known.
func RequestMagicLink(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req magicLinkRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.IssueMagicLink(r.Context(), auth.IssueMagicLinkInput{
			Email:    req.Email,
			ClientIP: clientIP(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "sent"})
	}
}

// VerifyMagicLink consumes a login token and establishes the session cookie.
func VerifyMagicLink(svc auth.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyMagicLink(r.Context(), strings.TrimSpace(req.Token))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionCookies(w, cfg, result)
		responses.WriteSuccess(w, result.Session)
	}
}

// AdminLogin authenticates back-office credentials and establishes the same
// session cookie leaders use.
func AdminLogin(svc auth.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminLoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdminLogin(r.Context(), auth.AdminLoginInput{
			Email:    req.Email,
			Password: req.Password,
			ClientIP: clientIP(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionCookies(w, cfg, result)
		responses.WriteSuccess(w, result.Session)
	}
}

// Logout drops the cached session and expires both cookies.
func Logout(svc auth.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		if err := svc.Logout(r.Context(), sess.Email); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clearSessionCookies(w, cfg)
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// Me returns the resolved session for the current cookie.
func Me(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		responses.WriteSuccess(w, sess)
	}
}

func setSessionCookies(w http.ResponseWriter, cfg config.SessionConfig, result *auth.LoginResult) {
	maxAge := int(cfg.CookieMaxAge.Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    result.SessionToken,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   maxAge,
		Secure:   cfg.CookieSecure,
		HttpOnly: cfg.CookieHTTPOnly,
		SameSite: http.SameSiteLaxMode,
	})

	// The legacy cookie keeps older frontends logged in during the JWT
	// rollout. Empty for admin logins.
	if result.LegacyToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.LegacyCookie,
			Value:    result.LegacyToken,
			Path:     "/",
			Domain:   cfg.CookieDomain,
			MaxAge:   maxAge,
			Secure:   cfg.CookieSecure,
			HttpOnly: cfg.CookieHTTPOnly,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func clearSessionCookies(w http.ResponseWriter, cfg config.SessionConfig) {
	for _, name := range []string{cfg.CookieName, cfg.LegacyCookie} {
		if name == "" {
			continue
		}
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   cfg.CookieDomain,
			MaxAge:   -1,
			Secure:   cfg.CookieSecure,
			HttpOnly: cfg.CookieHTTPOnly,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
