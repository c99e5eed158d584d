package handler

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/logging"
)

const (
	oauthStateCookie = "oauthstate"
	googleUserInfo   = "https://www.googleapis.com/oauth2/v2/userinfo"
	sessionTTL       = 24 * time.Hour
)

// AuthHandler signs administrators in with Google and issues the session JWT
// that guards the read and campaign APIs.
type AuthHandler struct {
	oauthConfig   *oauth2.Config
	userInfoURL   string
	jwtSecret     []byte
	frontendURL   string
	allowedEmails []string
	isProduction  bool
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL:   googleUserInfo,
		jwtSecret:     []byte(cfg.JWTSecret),
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		isProduction:  cfg.IsProduction(),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := h.generateStateOauthCookie(w)
	url := h.oauthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	log := logging.Ctx(r.Context())

	oauthState, err := r.Cookie(oauthStateCookie)
	if err != nil {
		log.Warn().Err(err).Msg("OAuth callback without state cookie")
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	if r.FormValue("state") != oauthState.Value {
		log.Warn().Msg("OAuth callback with mismatched state")
		http.Error(w, "invalid oauth google state", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		log.Error().Err(err).Msg("OAuth code exchange failed")
		http.Error(w, "code exchange failed", http.StatusInternalServerError)
		return
	}

	googleUser, err := h.fetchUser(r, token)
	if err != nil {
		log.Error().Err(err).Msg("Failed getting Google user info")
		http.Error(w, "failed getting user info", http.StatusInternalServerError)
		return
	}

	if !h.isAllowed(googleUser.Email) {
		log.Warn().Str("email", googleUser.Email).Msg("Login rejected, email not in allowlist")
		http.Error(w, "Access denied: your email is not in the allowlist", http.StatusForbidden)
		return
	}

	tokenString, expires, err := h.issueToken(googleUser.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed signing JWT")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    tokenString,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info().Str("email", googleUser.Email).Msg("Login successful")
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.frontendURL+"/login", http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchUser(r *http.Request, token *oauth2.Token) (*GoogleUser, error) {
	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// isAllowed accepts everyone when no allowlist is configured.
func (h *AuthHandler) isAllowed(email string) bool {
	if len(h.allowedEmails) == 0 {
		return true
	}
	return slices.Contains(h.allowedEmails, email)
}

func (h *AuthHandler) issueToken(email string) (string, time.Time, error) {
	expires := time.Now().Add(sessionTTL)
	claims := &jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	return signed, expires, err
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}
