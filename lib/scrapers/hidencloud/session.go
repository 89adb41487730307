package hidencloud

import (
	"net/http"
	"strings"
)

// ParseCookieString parses a browser-copied cookie header string
// ("name=value; name2=value2") into cookies. Items without an equals
// sign are skipped.
func ParseCookieString(s string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, item := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:  name,
			Value: strings.TrimSpace(value),
		})
	}
	return cookies
}

// CookieString is the inverse of ParseCookieString.
func CookieString(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
