package booru

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"boorudl/pkg/config"
)

const (
	// GelbooruBaseURL is the API root of gelbooru.com
	GelbooruBaseURL = "https://gelbooru.com/"

	// Rule34BaseURL is the API root of rule34.xxx
	Rule34BaseURL = "https://api.rule34.xxx/"

	// PostIndexPath is the DAPI endpoint, relative to the API root
	PostIndexPath = "index.php"

	// DefaultLimit is the number of posts requested per page
	DefaultLimit = 100
)

// BaseURLFor returns the API root for a source name
func BaseURLFor(source string) (string, error) {
	switch strings.ToLower(source) {
	case config.SourceGelbooru:
		return GelbooruBaseURL, nil
	case config.SourceRule34:
		return Rule34BaseURL, nil
	default:
		return "", fmt.Errorf("unknown booru source %q", source)
	}
}

// GetSearchURL constructs the post search URL for one page
func GetSearchURL(baseURL string, req SearchRequest, creds config.Credentials) string {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("page", "dapi")
	params.Set("s", "post")
	params.Set("q", "index")
	params.Set("json", "1")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("pid", strconv.Itoa(req.Page))
	params.Set("tags", req.QueryTags())
	if creds.APIKey != "" {
		params.Set("api_key", creds.APIKey)
	}
	if creds.UserID != "" {
		params.Set("user_id", creds.UserID)
	}

	return strings.TrimSuffix(baseURL, "/") + "/" + PostIndexPath + "?" + params.Encode()
}
