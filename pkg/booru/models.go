package booru

import (
	"net/url"
	"path"
	"strings"
)

// SearchRequest describes one page of a tag search
type SearchRequest struct {
	Tags        []string
	ExcludeTags []string
	Page        int
	Limit       int
}

// QueryTags joins the tags into the space separated form the API expects.
// Duplicates are dropped and excluded tags are prefixed with "-".
func (r SearchRequest) QueryTags() string {
	seen := make(map[string]bool, len(r.Tags)+len(r.ExcludeTags))
	var terms []string
	add := func(term string) {
		if term == "" || term == "-" || seen[term] {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}

	for _, tag := range r.Tags {
		add(strings.TrimSpace(tag))
	}
	for _, tag := range r.ExcludeTags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "-")
		add("-" + tag)
	}
	return strings.Join(terms, " ")
}

// Post is one search hit: the file to fetch and the name to store it under
type Post struct {
	ID       int
	FileURL  string
	Filename string
	MD5      string
	Rating   string
	Width    int
	Height   int
	Tags     []string
}

// apiPost is the wire form shared by Gelbooru and Rule34 (which names md5 "hash")
type apiPost struct {
	ID      int    `json:"id"`
	FileURL string `json:"file_url"`
	Image   string `json:"image"`
	MD5     string `json:"md5"`
	Hash    string `json:"hash"`
	Rating  string `json:"rating"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Tags    string `json:"tags"`
}

func (p apiPost) toPost() Post {
	md5 := p.MD5
	if md5 == "" {
		md5 = p.Hash
	}
	return Post{
		ID:       p.ID,
		FileURL:  p.FileURL,
		Filename: filenameFor(p.Image, p.FileURL),
		MD5:      md5,
		Rating:   p.Rating,
		Width:    p.Width,
		Height:   p.Height,
		Tags:     strings.Fields(p.Tags),
	}
}

// filenameFor prefers the API's image name and falls back to the last URL path segment
func filenameFor(image, fileURL string) string {
	if image != "" {
		return path.Base(image)
	}
	if u, err := url.Parse(fileURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return ""
}

// SearchResult is what one search call returns: either a single post or a list.
// The zero value is an empty list.
type SearchResult struct {
	single   *Post
	multiple []Post
}

// Single wraps a one-post response
func Single(p Post) SearchResult {
	return SearchResult{single: &p}
}

// Multiple wraps a list response
func Multiple(posts []Post) SearchResult {
	return SearchResult{multiple: posts}
}

// IsSingle reports whether the API answered with a bare post instead of a list
func (r SearchResult) IsSingle() bool {
	return r.single != nil
}

// Posts normalizes the result to a sequence
func (r SearchResult) Posts() []Post {
	if r.single != nil {
		return []Post{*r.single}
	}
	return r.multiple
}

// Len returns the number of posts in the result
func (r SearchResult) Len() int {
	return len(r.Posts())
}
