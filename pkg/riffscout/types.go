package riffscout

import (
	"encoding/json"

	"github.com/himanishpuri/RiffScout/pkg/models"
)

// GatherResult is returned by GatherResources.
type GatherResult struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	Response *models.ResourceBundle `json:"response"`
}

// AnalyzeRequest names the video document whose audio is analyzed.
type AnalyzeRequest struct {
	DocumentID string `json:"documentId"`
}

type LookupResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	MP3URL  string `json:"mp3url"`
}

// RemoteAnalysis is the analysis server's reply with every result labeled
// with its note. Extra holds the server's other top-level fields and is
// flattened into the JSON object.
type RemoteAnalysis struct {
	Success bool
	Message string
	Results []models.FrequencyResult
	Extra   map[string]json.RawMessage
}

func (r RemoteAnalysis) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		out[k] = v
	}
	results := r.Results
	if results == nil {
		results = []models.FrequencyResult{}
	}
	out["success"] = r.Success
	out["message"] = r.Message
	out["results"] = results
	return json.Marshal(out)
}

// LocalAnalysis is the result of in-process pitch detection.
type LocalAnalysis struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	Frequencies  []float64            `json:"frequencies"`
	Samples      []models.PitchSample `json:"samples"`
	SampleRate   int                  `json:"sampleRate"`
	Duration     float64              `json:"duration"`
	Tempo        int                  `json:"tempo"`
	Quantization int                  `json:"quantization"`
}

// IngestRequest creates a video document from a YouTube link. Title and
// artist default to yt-dlp's metadata.
type IngestRequest struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}
