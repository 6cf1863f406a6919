package utils

import (
	"net/url"
)

// IsValidUrl reports whether str is an absolute http(s) URL
func IsValidUrl(str string) bool {
	u, err := url.Parse(str)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
