package app

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"

	"pricefeed_api/internal/feed/query"
	"pricefeed_api/internal/feed/service"
)

const maxMultipartMemory = 1 << 20

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// requestParams collects parameters from the query string, the form body and a JSON body.
// Later sources override earlier ones.
func requestParams(r *http.Request) (map[string]string, error) {
	params := make(map[string]string)
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			params[key] = vals[len(vals)-1]
		}
	}

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch contentType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		mergeValues(params, r.PostForm)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		mergeValues(params, r.MultipartForm.Value)
	case "application/json":
		if r.Body == nil {
			break
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		for key, v := range body {
			s, err := jsonParam(v)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", key, err)
			}
			params[key] = s
		}
	}
	return params, nil
}

// jsonParam flattens a JSON value; arrays become comma separated lists.
func jsonParam(v any) (string, error) {
	list, ok := v.([]any)
	if !ok {
		return cast.ToStringE(v)
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		s, err := cast.ToStringE(item)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ","), nil
}

func mergeValues(params map[string]string, values url.Values) {
	for key, vals := range values {
		if len(vals) > 0 {
			params[key] = vals[len(vals)-1]
		}
	}
}

// parseRequest turns raw parameters and headers into a feed request.
func parseRequest(c *gin.Context) (service.Request, error) {
	params, err := requestParams(c.Request)
	if err != nil {
		return service.Request{}, err
	}

	authorization := c.GetHeader("X-Authorization")
	if authorization == "" {
		authorization = c.GetHeader("Authorization")
	}

	autoUpdate := true
	if raw := params["auto_update"]; raw != "" {
		autoUpdate = parseBool(raw)
	}

	return service.Request{
		Token:         strings.TrimSpace(params["token"]),
		Authorization: authorization,
		AutoUpdate:    autoUpdate,
		Query: query.Params{
			IDs:        parseIDs(params["products"]),
			Slugs:      parseSlugs(params["slugs"]),
			Variations: parseBool(params["variation"]),
			Limit:      leadingInt(params["limit"]),
			Page:       leadingInt(params["page"]),
		},
	}, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false":
		return false
	default:
		return true
	}
}

// leadingInt reads the integer at the start of raw, e.g. "12abc" is 12. Anything else is 0.
func leadingInt(raw string) int {
	raw = strings.TrimSpace(raw)
	sign := ""
	if raw != "" && (raw[0] == '-' || raw[0] == '+') {
		sign, raw = raw[:1], raw[1:]
	}
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	digits := strings.TrimLeft(raw[:end], "0")
	if digits == "" {
		return 0
	}
	return cast.ToInt(sign + digits)
}

// parseIDs reads a comma separated ID list. Entries that are not positive numbers are dropped.
func parseIDs(raw string) []int64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		if id := leadingInt(part); id > 0 {
			ids = append(ids, int64(id))
		}
	}
	return ids
}

// parseSlugs URL-decodes and splits a comma separated slug list.
func parseSlugs(raw string) []string {
	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}
	var slugs []string
	for _, part := range strings.Split(raw, ",") {
		if slug := strings.TrimSpace(part); slug != "" {
			slugs = append(slugs, slug)
		}
	}
	return slugs
}
