package youtube

import (
	"net/url"
	"strings"
)

// ExtractID derives the canonical YouTube video id from a link. Two shapes are
// recognized: youtu.be short links (id is the path segment) and youtube.com
// hosts (id is the v query parameter). Anything else, including malformed
// input, yields ""; the caller must treat that as a permanently invalid link,
// not a retryable failure.
func ExtractID(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Host)
	switch {
	case host == "youtu.be":
		id := strings.TrimPrefix(parsed.Path, "/")
		if idx := strings.Index(id, "/"); idx != -1 {
			id = id[:idx]
		}
		return id
	case strings.Contains(host, "youtube.com"):
		return parsed.Query().Get("v")
	}
	return ""
}
