package storefront

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const (
	csrfCookieName    = "csrftoken"
	sessionCookieName = "sessionid"
	csrfHeader        = "X-CSRFToken"
)

// NewCookieJar returns a cookie jar seeded with the storefront session and
// CSRF cookies. sessionCookie may be a bare value or "name=value".
func NewCookieJar(baseURL, sessionCookie, csrfToken string) (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse storefront url: %w", err)
	}

	var cookies []*http.Cookie
	if sessionCookie != "" {
		name, value := sessionCookieName, sessionCookie
		if n, v, ok := strings.Cut(sessionCookie, "="); ok {
			name, value = n, v
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	if csrfToken != "" {
		cookies = append(cookies, &http.Cookie{Name: csrfCookieName, Value: csrfToken, Path: "/"})
	}
	if len(cookies) > 0 {
		jar.SetCookies(u, cookies)
	}
	return jar, nil
}

// csrfToken returns the csrftoken cookie the jar holds for u, falling back to
// the configured token.
func (c *Client) csrfToken(u *url.URL) string {
	if c.jar != nil {
		for _, ck := range c.jar.Cookies(u) {
			if ck.Name == csrfCookieName && ck.Value != "" {
				return ck.Value
			}
		}
	}
	return c.fallbackCSRF
}

// authorize sets the dialect's authentication headers on req.
func (c *Client) authorize(req *http.Request) {
	if c.dialect.TokenAuth && c.authToken != "" {
		req.Header.Set("Authorization", "Token "+c.authToken)
	}
	if c.dialect.CSRF && isMutating(req.Method) {
		if token := c.csrfToken(req.URL); token != "" {
			req.Header.Set(csrfHeader, token)
		}
		// Django rejects HTTPS mutations without a same-origin Referer.
		req.Header.Set("Referer", c.base.String())
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}
