package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)

// ExtractYouTubeID returns the video id from any of the common YouTube URL
// forms: youtu.be/<id>, /watch?v=<id>, /embed/<id>, /v/<id>, /shorts/<id>
// and /live/<id>.
func ExtractYouTubeID(youtubeURL string) (string, error) {
	raw := strings.TrimSpace(youtubeURL)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	host := strings.ToLower(u.Hostname())
	var id string

	switch {
	case host == "youtu.be" || strings.HasSuffix(host, ".youtu.be"):
		id = firstSegment(strings.TrimPrefix(u.Path, "/"))
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") ||
		host == "youtube-nocookie.com" || strings.HasSuffix(host, ".youtube-nocookie.com"):
		if strings.HasPrefix(u.Path, "/watch") {
			id = u.Query().Get("v")
			break
		}
		for _, prefix := range []string{"/embed/", "/v/", "/shorts/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id = firstSegment(strings.TrimPrefix(u.Path, prefix))
				break
			}
		}
	default:
		return "", fmt.Errorf("not a YouTube URL: %s", youtubeURL)
	}

	if !youtubeIDPattern.MatchString(id) {
		return "", fmt.Errorf("unable to extract video ID from URL: %s", youtubeURL)
	}
	return id, nil
}

func firstSegment(path string) string {
	if idx := strings.IndexAny(path, "/?&#"); idx != -1 {
		return path[:idx]
	}
	return path
}
