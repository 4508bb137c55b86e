// Package cdn builds Discord CDN addresses for avatars and server icons.
package cdn

import (
	"fmt"
	"strings"
)

// Kind selects the CDN collection.
type Kind string

const (
	Avatars Kind = "avatars"
	Icons   Kind = "icons"
)

const (
	baseURL     = "https://cdn.discordapp.com"
	displaySize = 512
)

// AssetURL returns the image address for an entity id and asset hash.
// It reports false when the hash is empty.
func AssetURL(kind Kind, id, hash string) (string, bool) {
	if hash == "" {
		return "", false
	}
	if strings.HasPrefix(hash, "http") {
		return hash, true
	}
	ext := "png"
	if strings.HasPrefix(hash, "a_") {
		ext = "gif"
	}
	return fmt.Sprintf("%s/%s/%s/%s.%s?size=%d", baseURL, kind, id, hash, ext, displaySize), true
}
