// Package corpus loads the raw documents an index is built from: crawled web
// pages, JSON-lines news datasets, or a Postgres table.
package corpus

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
)

const (
	maxTitleLength = 1024
	maxBodyLength  = 1048576
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,7}$`)

// Page is one crawled web page.
type Page struct {
	PageID PageID   `json:"pageid"`
	URL    string   `json:"url"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Emails []string `json:"emails"`
}

// PageID is the last path segment of the crawled URL. Older crawls wrote it
// as a number, so both JSON strings and numbers are accepted.
type PageID string

func (id *PageID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = PageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pageid must be a string or number, got %s", data)
	}
	*id = PageID(n.String())
	return nil
}

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// ValidatePage checks a crawled page before its body is indexed.
func ValidatePage(p Page) error {
	errs := make(map[string]string)

	if p.URL == "" {
		errs["url"] = "url is required"
	} else if u, err := url.Parse(p.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs["url"] = "url must be an absolute http(s) address"
	}
	if len(p.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	body := strings.TrimSpace(p.Body)
	if body == "" {
		errs["body"] = "body is required and must not be empty"
	} else if len(p.Body) > maxBodyLength {
		errs["body"] = fmt.Sprintf("body must be at most %d characters", maxBodyLength)
	}
	for _, email := range p.Emails {
		if !emailPattern.MatchString(email) {
			errs["emails"] = fmt.Sprintf("invalid email address %q", email)
			break
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// LoadPages reads a JSON array of crawled pages. Pages are returned as
// stored; callers that index them validate each one.
func LoadPages(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pages file %s: %w", path, err)
	}
	var pages []Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("parsing pages file %s: %w", path, err)
	}
	return pages, nil
}
