package util

import (
	"net/url"
	"strconv"
)

// GetQueryParam returns the first value of key in the URL query, or defaultValue.
func GetQueryParam(u *url.URL, key string, defaultValue string) string {
	if u == nil {
		return defaultValue
	}

	if value := u.Query().Get(key); value != "" {
		return value
	}

	return defaultValue
}

// GetQueryParamInt is GetQueryParam for integers; values that do not parse yield defaultValue.
func GetQueryParamInt(u *url.URL, key string, defaultValue int) int {
	value := GetQueryParam(u, key, "")
	if value == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return i
}
