package utils

import (
	"net/url"
	"strconv"
	"strings"

	"admin-system/pkg/types"
)

// Fallbacks until ConfigurePagination runs at startup.
var (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ConfigurePagination installs the configured page size and cap.
// Non-positive values keep the current ones.
func ConfigurePagination(defaultLimit, maxLimit int) {
	if defaultLimit > 0 {
		DefaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		MaxLimit = maxLimit
	}
}

// ParseFilterFromQuery turns raw query values into a types.Filter:
// ?search=...&sort[name]=asc&filter[user_status]=1&page=2&limit=20
// Pagination is enabled unless withPagination=false is sent explicitly.
func ParseFilterFromQuery(query url.Values) types.Filter {
	filter := types.Filter{
		Sort:           make(map[string]string),
		Filter:         make(map[string]interface{}),
		Limit:          DefaultLimit,
		Page:           1,
		WithPagination: true,
	}

	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			filter.Filter[key[7:len(key)-1]] = values[0]
		case strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]"):
			filter.Sort[key[5:len(key)-1]] = values[0]
		}
	}

	if search := query.Get("search"); search != "" {
		filter.Search = search
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				l = MaxLimit
			}
			filter.Limit = l
		}
	}

	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filter.Page = p
		}
	}
	filter.Offset = (filter.Page - 1) * filter.Limit

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
			filter.Page = o/filter.Limit + 1
		}
	}

	if wp := query.Get("withPagination"); wp == "false" {
		filter.WithPagination = false
	}

	return filter
}
