package handlers

import (
	"net/http"
	"time"

	authmw "github.com/Skotchmaster/session_auth/internal/middleware/auth"
)

const (
	AccessCookie  = authmw.AccessCookie
	RefreshCookie = "refreshToken"
)

// CookieConfig holds the deployment-specific cookie attributes.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

func (cc CookieConfig) CreateCookie(name, value, path string, expTime time.Time) *http.Cookie {
	sameSite := cc.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   cc.Domain,
		Expires:  expTime,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: sameSite,
	}
}

func (cc CookieConfig) DeleteCookie(name, path string) *http.Cookie {
	c := cc.CreateCookie(name, "", path, time.Unix(0, 0))
	c.MaxAge = -1
	return c
}
