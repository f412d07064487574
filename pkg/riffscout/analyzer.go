package riffscout

import (
	"context"
	"errors"
	"strings"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/audio"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/notes"
)

const (
	msgDocumentIDRequired = "Document ID is required"
	msgDocumentNotFound   = "Video document not found"
	msgMP3URLMissing      = "MP3 URL not found in video document"
	msgMP3URLFound        = "MP3 URL found successfully"
	msgAnalyzed           = "Audio analyzed successfully"
	msgProcessed          = "Audio processed successfully"
)

// lookup resolves the audio URL of a video document. It never downloads.
func (s *riffService) lookup(ctx context.Context, req AnalyzeRequest) (*models.Video, error) {
	id := strings.TrimSpace(req.DocumentID)
	if id == "" {
		return nil, apperr.InvalidArgument(msgDocumentIDRequired)
	}

	v, err := s.store.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrDocumentNotFound) {
			return nil, apperr.NotFound(msgDocumentNotFound, err)
		}
		s.log.Errorf("Reading video %s failed: %v", id, err)
		return nil, apperr.Surface(err, "Failed to read video document")
	}
	if strings.TrimSpace(v.MP3URL) == "" {
		return nil, apperr.NotFound(msgMP3URLMissing, apperr.ErrMissingAudioURL)
	}
	return v, nil
}

func (s *riffService) LookupAudio(ctx context.Context, req AnalyzeRequest) (*LookupResult, error) {
	v, err := s.lookup(ctx, req)
	if err != nil {
		return nil, err
	}
	return &LookupResult{Success: true, Message: msgMP3URLFound, MP3URL: v.MP3URL}, nil
}

func (s *riffService) download(ctx context.Context, v *models.Video) (*audio.Download, error) {
	dl, err := s.fetcher.Fetch(ctx, v.MP3URL)
	if err != nil {
		s.log.Errorf("Downloading audio for video %s failed: %v", v.ID, err)
		return nil, apperr.Surface(err, "Failed to download audio")
	}
	return dl, nil
}

// AnalyzeAudio forwards the video's audio to the analysis server and labels
// each returned frequency with its note name.
func (s *riffService) AnalyzeAudio(ctx context.Context, req AnalyzeRequest) (*RemoteAnalysis, error) {
	v, err := s.lookup(ctx, req)
	if err != nil {
		return nil, err
	}
	dl, err := s.download(ctx, v)
	if err != nil {
		return nil, err
	}

	resp, err := s.analyzer.Analyze(ctx, dl.Filename, dl.Data)
	if err != nil {
		s.log.Errorf("Remote analysis of video %s failed: %v", v.ID, err)
		return nil, apperr.Surface(err, "Audio analysis failed")
	}

	results := make([]models.FrequencyResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = models.FrequencyResult{
			Frequency: r.Frequency,
			Note:      notes.Name(r.Frequency),
			Fields:    r.Fields,
		}
	}
	s.log.Infof("Analyzed video %s: %d results", v.ID, len(results))

	return &RemoteAnalysis{
		Success: true,
		Message: msgAnalyzed,
		Results: results,
		Extra:   resp.Extra,
	}, nil
}

// AnalyzeAudioLocal decodes the video's audio and estimates one pitch per
// analysis window. Nothing is persisted.
func (s *riffService) AnalyzeAudioLocal(ctx context.Context, req AnalyzeRequest) (*LocalAnalysis, error) {
	v, err := s.lookup(ctx, req)
	if err != nil {
		return nil, err
	}
	dl, err := s.download(ctx, v)
	if err != nil {
		return nil, err
	}

	data := dl.Data
	if !audio.IsWAV(data) {
		data, err = s.transcoder.ToWAV(ctx, data, s.config.SampleRate)
		if err != nil {
			s.log.Errorf("Converting audio of video %s failed: %v", v.ID, err)
			return nil, apperr.Surface(err, "Audio conversion failed")
		}
	}

	pcm, err := audio.DecodeWAV(data)
	if err != nil {
		s.log.Errorf("Decoding audio of video %s failed: %v", v.ID, err)
		return nil, apperr.Surface(err, "Failed to decode audio")
	}

	samples, err := s.detector.Frequencies(pcm.Channel(0), pcm.SampleRate, s.config.Tempo, s.config.Quantization)
	if err != nil {
		s.log.Errorf("Pitch detection for video %s failed: %v", v.ID, err)
		return nil, apperr.Surface(err, "Pitch detection failed")
	}

	freqs := make([]float64, len(samples))
	for i, p := range samples {
		freqs[i] = p.Frequency
	}
	s.log.Infof("Detected %d pitch windows for video %s (%.1fs at %d Hz)", len(samples), v.ID, pcm.DurationSeconds(), pcm.SampleRate)

	return &LocalAnalysis{
		Success:      true,
		Message:      msgProcessed,
		Frequencies:  freqs,
		Samples:      samples,
		SampleRate:   pcm.SampleRate,
		Duration:     pcm.DurationSeconds(),
		Tempo:        s.config.Tempo,
		Quantization: s.config.Quantization,
	}, nil
}
