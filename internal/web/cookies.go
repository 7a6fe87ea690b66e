package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName = "session"
	stateCookieName   = "oauth_state"
	stateTTL          = 5 * time.Minute
)

// cookieSigner stores values in HS256-signed JWT cookies. The value travels
// as the token's subject and the cookie expires with the token.
type cookieSigner struct {
	key    []byte
	secure bool
	now    func() time.Time
}

func newCookieSigner(secret string, secure bool) *cookieSigner {
	return &cookieSigner{key: []byte(secret), secure: secure, now: time.Now}
}

func (c *cookieSigner) sign(subject string, ttl time.Duration) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signing cookie: %w", err)
	}
	return signed, nil
}

// verify returns the subject of a signed value.
func (c *cookieSigner) verify(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("verifying cookie: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("verifying cookie: empty subject")
	}
	return claims.Subject, nil
}

func (c *cookieSigner) set(w http.ResponseWriter, name, value string, ttl time.Duration) error {
	signed, err := c.sign(value, ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
	return nil
}

func (c *cookieSigner) read(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return c.verify(cookie.Value)
}

func (c *cookieSigner) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
