package riffscout

import (
	"context"
	"strings"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/utils"
)

const (
	msgGatherArgsRequired = "The function must be called with videoId and title."
	msgGatherFailed       = "API call failed"
	msgGathered           = "Resources gathered and stored successfully"
)

// SearchPhrase is the phrase sent to the completion API.
func SearchPhrase(title, artist string) string {
	if artist == "" {
		return title
	}
	return title + " by " + artist
}

// GatherResources asks the completion API for tabs and tutorials and
// writes them onto the video document.
func (s *riffService) GatherResources(ctx context.Context, req models.ResourceRequest) (*GatherResult, error) {
	videoID := strings.TrimSpace(req.VideoID)
	title := strings.TrimSpace(req.Title)
	if videoID == "" || title == "" {
		return nil, apperr.InvalidArgument(msgGatherArgsRequired)
	}

	phrase := SearchPhrase(title, strings.TrimSpace(req.Artist))
	s.log.Infof("Gathering resources for video %s: %q", videoID, phrase)

	bundle, err := s.completer.FindResources(ctx, phrase)
	if err != nil {
		s.log.Errorf("Completion for video %s (%q) failed: %v", videoID, phrase, err)
		return nil, apperr.Surface(err, msgGatherFailed)
	}

	if err := s.store.ApplyResources(ctx, videoID, ToResourceUpdate(bundle)); err != nil {
		s.log.Errorf("Storing resources for video %s failed: %v", videoID, err)
		return nil, apperr.Surface(err, msgGatherFailed)
	}

	s.log.Infof("Stored %d tabs and %d tutorials on video %s", len(bundle.Tabs), len(bundle.Tutorials), videoID)
	return &GatherResult{Success: true, Message: msgGathered, Response: bundle}, nil
}

// ToResourceUpdate maps a bundle onto the persisted document fields.
func ToResourceUpdate(b *models.ResourceBundle) models.ResourceUpdate {
	update := models.ResourceUpdate{
		Tabs:      make([]models.Tab, 0, len(b.Tabs)),
		Tutorials: make([]models.StoredTutorial, 0, len(b.Tutorials)),
	}
	for _, tab := range b.Tabs {
		tab.Difficulty = strings.ToLower(strings.TrimSpace(tab.Difficulty))
		update.Tabs = append(update.Tabs, tab)
	}
	for _, t := range b.Tutorials {
		ytID, err := utils.ExtractYouTubeID(t.URL)
		if err != nil {
			ytID = ""
		}
		update.Tutorials = append(update.Tutorials, models.StoredTutorial{
			ChannelName:  t.ChannelName,
			Title:        t.Title,
			URL:          t.URL,
			ViewCount:    t.ViewCount,
			ThumbnailURL: "",
			YouTubeID:    ytID,
			Duration:     "",
			IsBestMatch:  true,
		})
	}
	if b.GuitarproURL != nil {
		if u := strings.TrimSpace(*b.GuitarproURL); u != "" {
			update.GuitarproURL = &u
		}
	}
	return update
}
