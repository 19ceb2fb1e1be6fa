package utils

import (
	"net/url"
	"os"
	"strings"
)

const defaultGCSHost = "storage.googleapis.com"

func gcsHost() string {
	host := strings.TrimSpace(os.Getenv("GCS_URL"))
	if host == "" {
		return defaultGCSHost
	}
	return host
}

// BuildObjectAccessURL returns the public https URL of a bucket object.
func BuildObjectAccessURL(objectKey string) string {
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		return objectKey
	}
	return "https://" + gcsHost() + "/" + bucket + "/" + objectKey
}

// ExtractObjectKeyFromURL is the inverse of BuildObjectAccessURL.
// Raw keys and gs:// URLs are accepted as well.
func ExtractObjectKeyFromURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.Contains(rawURL, "..") {
		return ""
	}

	if strings.HasPrefix(rawURL, "gs://") {
		parts := strings.SplitN(strings.TrimPrefix(rawURL, "gs://"), "/", 2)
		if len(parts) == 2 {
			return parts[1]
		}
		return ""
	}

	if !strings.Contains(rawURL, "://") {
		return strings.TrimPrefix(rawURL, "/")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	p := strings.TrimPrefix(parsed.Path, "/")
	if strings.EqualFold(parsed.Host, gcsHost()) {
		parts := strings.SplitN(p, "/", 2)
		if len(parts) == 2 && (bucket == "" || parts[0] == bucket) {
			return parts[1]
		}
		return ""
	}
	if strings.HasSuffix(strings.ToLower(parsed.Host), "."+defaultGCSHost) {
		return p
	}
	return ""
}
