package booru

import (
	"bytes"
	"encoding/json"
	"fmt"

	errs "boorudl/pkg/errors"
)

// envelope is Gelbooru's JSON wrapper. "post" is absent on an empty page.
type envelope struct {
	Post    json.RawMessage `json:"post"`
	Success *bool           `json:"success"`
	Message string          `json:"message"`
}

// DecodeSearchResponse parses a search response body from either API.
//
// Accepted shapes:
//   - empty body (Rule34, no results)
//   - [...] bare list (Rule34)
//   - {"@attributes":..., "post": [...] | {...}} envelope (Gelbooru)
//   - {...} bare post
func DecodeSearchResponse(body []byte) (SearchResult, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Multiple(nil), nil
	}

	switch body[0] {
	case '[':
		return decodeList(body)
	case '{':
		return decodeObject(body)
	default:
		return SearchResult{}, errs.New(errs.ErrorTypeParsing, fmt.Sprintf("unexpected response body starting with %q", body[0]))
	}
}

func decodeList(body []byte) (SearchResult, error) {
	var raw []apiPost
	if err := json.Unmarshal(body, &raw); err != nil {
		return SearchResult{}, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse post list")
	}

	posts := make([]Post, 0, len(raw))
	for _, p := range raw {
		posts = append(posts, p.toPost())
	}
	return Multiple(posts), nil
}

func decodeSingle(body []byte) (SearchResult, error) {
	var raw apiPost
	if err := json.Unmarshal(body, &raw); err != nil {
		return SearchResult{}, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse post")
	}
	return Single(raw.toPost()), nil
}

func decodeObject(body []byte) (SearchResult, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return SearchResult{}, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse response")
	}

	if env.Success != nil && !*env.Success {
		return SearchResult{}, errs.New(errs.ErrorTypeAPI, fmt.Sprintf("search rejected: %s", env.Message))
	}

	post := bytes.TrimSpace(env.Post)
	if len(post) == 0 || bytes.Equal(post, []byte("null")) {
		// No "post" key: either an empty envelope or a bare post object
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return SearchResult{}, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse response")
		}
		if _, ok := fields["file_url"]; ok {
			return decodeSingle(body)
		}
		return Multiple(nil), nil
	}

	switch post[0] {
	case '[':
		return decodeList(post)
	case '{':
		return decodeSingle(post)
	default:
		return SearchResult{}, errs.New(errs.ErrorTypeParsing, "unexpected \"post\" value in response")
	}
}
