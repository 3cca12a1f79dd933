package storage

import (
	"net/url"
	"strings"
)

// objectPrefixes are the key namespaces Upload writes under.
var objectPrefixes = []string{"avatars/", "messages/"}

// KeyFromURL recovers the object key from a URL handed out by Upload, whether
// it was built from the public base URL, the path-style endpoint address, or a
// presigned link. Returns false for URLs outside the known key namespaces.
func KeyFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	path := strings.TrimPrefix(u.Path, "/")
	for _, prefix := range objectPrefixes {
		if i := strings.Index(path, prefix); i >= 0 {
			return path[i:], true
		}
	}
	return "", false
}
