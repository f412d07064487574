package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/audio"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/notes"
)

func (a *app) gatherCmd() *cobra.Command {
	var req models.ResourceRequest
	cmd := &cobra.Command{
		Use:   "gather",
		Short: "Ask the completion API for tabs and tutorials and store them on a video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			out := cmd.OutOrStdout()
			progress(cmd, "🔍 Searching resources for %q...", riffscout.SearchPhrase(req.Title, req.Artist))
			res, err := svc.GatherResources(ctx, req)
			if err != nil {
				return err
			}
			return a.emit(out, res, func() {
				b := res.Response
				fmt.Fprintf(out, "\n✅ %s\n", res.Message)
				fmt.Fprintf(out, "\n🎸 Tabs (%d):\n", len(b.Tabs))
				for i, t := range b.Tabs {
					fmt.Fprintf(out, "%d. [%s] %s (%s, %s)\n   %s\n", i+1, t.Difficulty, t.Title, t.Type, t.Rating, t.URL)
				}
				fmt.Fprintf(out, "\n🎬 Tutorials (%d):\n", len(b.Tutorials))
				for i, t := range b.Tutorials {
					fmt.Fprintf(out, "%d. %s by %s (%s)\n   %s\n", i+1, t.Title, t.ChannelName, t.ViewCount, t.URL)
				}
				if b.GuitarproURL != nil {
					fmt.Fprintf(out, "\n📄 Guitar Pro: %s\n", *b.GuitarproURL)
				}
			})
		},
	}
	cmd.Flags().StringVar(&req.VideoID, "video", "", "video document ID (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "song title (required)")
	cmd.Flags().StringVar(&req.Artist, "artist", "", "artist name")
	return cmd
}

func (a *app) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <document-id>",
		Short: "Print the mp3 URL of a video document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			res, err := svc.LookupAudio(ctx, riffscout.AnalyzeRequest{DocumentID: args[0]})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return a.emit(out, res, func() {
				fmt.Fprintln(out, res.MP3URL)
			})
		},
	}
}

func (a *app) analyzeCmd() *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "analyze <document-id>",
		Short: "Analyze the pitch content of a video's audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			out := cmd.OutOrStdout()
			req := riffscout.AnalyzeRequest{DocumentID: args[0]}

			if local {
				res, err := svc.AnalyzeAudioLocal(ctx, req)
				if err != nil {
					return err
				}
				return a.emit(out, res, func() {
					fmt.Fprintf(out, "✅ %s: %d windows over %.1fs at %d Hz (%d BPM, 1/%d notes)\n\n",
						res.Message, len(res.Samples), res.Duration, res.SampleRate, res.Tempo, res.Quantization)
					for _, s := range res.Samples {
						if s.Frequency == 0 {
							fmt.Fprintf(out, "%8.3fs   -\n", s.Time)
							continue
						}
						fmt.Fprintf(out, "%8.3fs   %8.2f Hz   %s\n", s.Time, s.Frequency, s.Note)
					}
				})
			}

			res, err := svc.AnalyzeAudio(ctx, req)
			if err != nil {
				return err
			}
			return a.emit(out, res, func() {
				fmt.Fprintf(out, "✅ %s: %d results\n\n", res.Message, len(res.Results))
				for i, r := range res.Results {
					fmt.Fprintf(out, "%4d. %8.2f Hz   %s\n", i+1, r.Frequency, r.Note)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "detect pitch in-process instead of using the analysis server")
	return cmd
}

func (a *app) noteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <frequency>...",
		Short: "Print the nearest equal-tempered note for each frequency",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type noteOut struct {
				Frequency float64 `json:"frequency"`
				Note      string  `json:"note"`
				Cents     float64 `json:"cents"`
			}
			results := make([]noteOut, 0, len(args))
			for _, arg := range args {
				f, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid frequency %q", arg)
				}
				n, err := notes.FromFrequency(f)
				if err != nil {
					return fmt.Errorf("invalid frequency %q: %w", arg, err)
				}
				results = append(results, noteOut{Frequency: f, Note: n.String(), Cents: n.Cents})
			}

			out := cmd.OutOrStdout()
			return a.emit(out, results, func() {
				for _, r := range results {
					fmt.Fprintf(out, "%.2f Hz\t%s\t%+.1f cents\n", r.Frequency, r.Note, r.Cents)
				}
			})
		},
	}
}

func (a *app) videosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "videos",
		Short: "Manage video documents",
	}
	cmd.AddCommand(a.videosAddCmd(), a.videosListCmd(), a.videosGetCmd(), a.videosDeleteCmd())
	return cmd
}

func (a *app) videosAddCmd() *cobra.Command {
	var v models.Video
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a video document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			created, err := svc.CreateVideo(cmd.Context(), v)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return a.emit(out, created, func() {
				fmt.Fprintf(out, "✅ Created video %s\n", created.ID)
				printVideo(cmd, created)
			})
		},
	}
	cmd.Flags().StringVar(&v.ID, "id", "", "document ID (default: generated)")
	cmd.Flags().StringVar(&v.Title, "title", "", "song title (required)")
	cmd.Flags().StringVar(&v.Artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&v.MP3URL, "mp3-url", "", "URL of the song's audio")
	cmd.Flags().StringVar(&v.YouTubeID, "youtube-id", "", "YouTube video ID")
	return cmd
}

func (a *app) videosListCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List video documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			videos, err := svc.ListVideos(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if videos == nil {
				videos = []models.Video{}
			}
			return a.emit(out, videos, func() {
				if len(videos) == 0 {
					fmt.Fprintln(out, "📭 No videos in database")
					return
				}
				fmt.Fprintf(out, "📚 Found %d video(s):\n\n", len(videos))
				for i := range videos {
					fmt.Fprintf(out, "%d. ", offset+i+1)
					printVideo(cmd, &videos[i])
					fmt.Fprintln(out)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of videos")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of videos to skip")
	return cmd
}

func (a *app) videosGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <document-id>",
		Short: "Show a video document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			v, err := svc.GetVideo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return a.emit(out, v, func() {
				printVideo(cmd, v)
				for _, t := range v.Tabs {
					fmt.Fprintf(out, "   Tab: [%s] %s %s\n", t.Difficulty, t.Title, t.URL)
				}
				for _, t := range v.Tutorials {
					fmt.Fprintf(out, "   Tutorial: %s %s\n", t.Title, t.URL)
				}
				if v.GuitarproURL != nil {
					fmt.Fprintf(out, "   Guitar Pro: %s\n", *v.GuitarproURL)
				}
			})
		},
	}
}

func (a *app) videosDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a video document and its extracted audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if err := svc.DeleteVideo(cmd.Context(), args[0]); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return a.emit(out, map[string]any{"success": true, "id": args[0]}, func() {
				fmt.Fprintf(out, "✅ Deleted video %s\n", args[0])
			})
		},
	}
}

func (a *app) ingestCmd() *cobra.Command {
	var req riffscout.IngestRequest
	cmd := &cobra.Command{
		Use:   "ingest <youtube-url>",
		Short: "Download a YouTube video, extract its mp3 and create a video document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			out := cmd.OutOrStdout()
			req.URL = args[0]
			progress(cmd, "📥 Downloading from YouTube...")
			v, err := svc.IngestYouTube(ctx, req)
			if err != nil {
				return err
			}
			return a.emit(out, v, func() {
				fmt.Fprintf(out, "✅ Ingested video %s\n", v.ID)
				printVideo(cmd, v)
			})
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "song title (default: from YouTube metadata)")
	cmd.Flags().StringVar(&req.Artist, "artist", "", "artist name (default: from YouTube metadata)")
	return cmd
}

func (a *app) spectrogramCmd() *cobra.Command {
	var output string
	var opts audio.SpectrogramOptions
	cmd := &cobra.Command{
		Use:   "spectrogram <wav-file>",
		Short: "Render a PNG spectrogram of the first channel of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			pcm, err := audio.DecodeWAV(data)
			if err != nil {
				return err
			}
			if err := audio.RenderSpectrogram(pcm.Channel(0), pcm.SampleRate, output, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s (%.1fs of audio, %s input)\n",
				output, pcm.DurationSeconds(), humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "spectrogram.png", "output PNG path")
	cmd.Flags().IntVar(&opts.Width, "width", 2048, "image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", 512, "image height in pixels (frequency bins)")
	cmd.Flags().BoolVar(&opts.Log10, "log", false, "log-scale the magnitude")
	return cmd
}

// progress writes a status line to stderr, leaving stdout for results.
func progress(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func printVideo(cmd *cobra.Command, v *models.Video) {
	out := cmd.OutOrStdout()
	title := v.Title
	if v.Artist != "" {
		title = fmt.Sprintf("%q by %s", v.Title, v.Artist)
	}
	fmt.Fprintf(out, "%s (ID: %s)\n", title, v.ID)
	if v.YouTubeID != "" {
		fmt.Fprintf(out, "   YouTube: https://youtube.com/watch?v=%s\n", v.YouTubeID)
	}
	if v.MP3URL != "" {
		fmt.Fprintf(out, "   Audio: %s\n", v.MP3URL)
	}
	if v.DurationMs > 0 {
		d := v.DurationMs / 1000
		fmt.Fprintf(out, "   Duration: %d:%02d\n", d/60, d%60)
	}
	fmt.Fprintf(out, "   Added: %s\n", humanize.Time(v.CreatedAt))
}
