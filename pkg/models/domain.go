package models

import (
	"encoding/json"
	"time"
)

// Tab difficulty levels requested from the completion API.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// IsDifficulty reports whether s is one of the known difficulty levels.
func IsDifficulty(s string) bool {
	switch s {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ResourceRequest is the input of a resource-gathering call.
type ResourceRequest struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
	Artist  string `json:"artist,omitempty"`
}

// Tab is a single tablature link.
type Tab struct {
	Difficulty string `json:"difficulty"`
	Rating     string `json:"rating"` // "X.Y/5"
	Title      string `json:"title"`
	Type       string `json:"type"`
	URL        string `json:"url"`
}

// Tutorial is a video lesson as returned by the completion API.
type Tutorial struct {
	ChannelName string `json:"channelName"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	ViewCount   string `json:"viewCount"` // e.g. "211k views"
}

// StoredTutorial is the persisted form of a Tutorial.
type StoredTutorial struct {
	ChannelName  string `json:"channelName"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ViewCount    string `json:"viewCount"`
	ThumbnailURL string `json:"thumbnailUrl"`
	YouTubeID    string `json:"youtubeId"`
	Duration     string `json:"duration"`
	IsBestMatch  bool   `json:"isBestMatch"`
}

// ResourceBundle is the structured answer embedded in a completion.
type ResourceBundle struct {
	Tabs         []Tab      `json:"tabs"`
	GuitarproURL *string    `json:"guitarproUrl"`
	Tutorials    []Tutorial `json:"tutorials"`
}

// ResourceUpdate is the partial write applied to a video document.
type ResourceUpdate struct {
	Tabs         []Tab
	Tutorials    []StoredTutorial
	GuitarproURL *string
}

// Video is a document of the videos collection.
type Video struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Artist       string           `json:"artist,omitempty"`
	YouTubeID    string           `json:"youtubeId,omitempty"`
	MP3URL       string           `json:"mp3url,omitempty"`
	DurationMs   int              `json:"durationMs,omitempty"`
	Tabs         []Tab            `json:"tabs"`
	Tutorials    []StoredTutorial `json:"tutorials"`
	GuitarproURL *string          `json:"guitarproUrl"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    *time.Time       `json:"updatedAt,omitempty"`
}

// PitchSample is one analysis window of the local analyzer.
// A Frequency of 0 marks a window with no detectable pitch.
type PitchSample struct {
	Time      float64 `json:"time"`
	Frequency float64 `json:"frequency"`
	Note      string  `json:"note,omitempty"`
}

// FrequencyResult is one entry returned by the remote analysis server,
// labeled with its note name. Fields holds every other key of the entry
// so it can be relayed unchanged.
type FrequencyResult struct {
	Frequency float64
	Note      string
	Fields    map[string]json.RawMessage
}

func (r FrequencyResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["frequency"] = r.Frequency
	out["note"] = r.Note
	return json.Marshal(out)
}
