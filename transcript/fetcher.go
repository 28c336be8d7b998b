package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ytchatbot/types"
)

var ErrNoTranscript = errors.New("no transcript available for video")

// captionTracksPattern locates the player's caption track list inside the
// watch page HTML.
var captionTracksPattern = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

type Fetcher interface {
	Fetch(ctx context.Context, videoID string) ([]types.TranscriptSegment, error)
}

// YouTubeFetcher obtains caption text for a video. It reads the caption track
// list from the watch page, tries the preferred languages in order and falls
// back to whatever track is available when none of them match. Individual
// attempt failures are logged and swallowed; only total exhaustion is an
// error the caller sees.
type YouTubeFetcher struct {
	client    *http.Client
	baseURL   string
	languages []string
}

func NewYouTubeFetcher() *YouTubeFetcher {
	return &YouTubeFetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   "https://www.youtube.com",
		languages: []string{"en", "en-US", "en-GB"},
	}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) ([]types.TranscriptSegment, error) {
	tracks, err := f.captionTracks(ctx, videoID)
	if err != nil {
		log.Printf("[TRANSCRIPT] caption track listing failed for %s: %v", videoID, err)
		return nil, fmt.Errorf("%w: %s", ErrNoTranscript, videoID)
	}

	for _, lang := range f.languages {
		track := findTrack(tracks, lang)
		if track == nil {
			continue
		}
		segments, err := f.fetchTrack(ctx, track.BaseURL)
		if err != nil || len(segments) == 0 {
			log.Printf("[TRANSCRIPT] attempt lang=%s for %s failed: %v", lang, videoID, err)
			continue
		}
		log.Printf("[TRANSCRIPT] fetched %d segments for %s (lang=%s)", len(segments), videoID, lang)
		return segments, nil
	}

	// one more try with no language constraint
	for _, track := range tracks {
		segments, err := f.fetchTrack(ctx, track.BaseURL)
		if err != nil || len(segments) == 0 {
			log.Printf("[TRANSCRIPT] attempt lang=%s for %s failed: %v", track.LanguageCode, videoID, err)
			continue
		}
		log.Printf("[TRANSCRIPT] fetched %d segments for %s (lang=%s, fallback)", len(segments), videoID, track.LanguageCode)
		return segments, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoTranscript, videoID)
}

func (f *YouTubeFetcher) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	pageURL := fmt.Sprintf("%s/watch?v=%s", f.baseURL, videoID)
	body, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	m := captionTracksPattern.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("no caption tracks on watch page")
	}

	var tracks []captionTrack
	if err := json.Unmarshal(m[1], &tracks); err != nil {
		return nil, fmt.Errorf("failed to parse caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("caption track list is empty")
	}
	return tracks, nil
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

func (f *YouTubeFetcher) fetchTrack(ctx context.Context, trackURL string) ([]types.TranscriptSegment, error) {
	if strings.HasPrefix(trackURL, "/") {
		trackURL = f.baseURL + trackURL
	}

	body, err := f.get(ctx, trackURL)
	if err != nil {
		return nil, err
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("failed to parse timedtext: %w", err)
	}

	segments := make([]types.TranscriptSegment, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text == "" {
			continue
		}
		segments = append(segments, types.TranscriptSegment{
			Text:  text,
			Start: t.Start,
			Dur:   t.Dur,
		})
	}
	return segments, nil
}

func (f *YouTubeFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func findTrack(tracks []captionTrack, lang string) *captionTrack {
	for i := range tracks {
		if tracks[i].LanguageCode == lang {
			return &tracks[i]
		}
	}
	return nil
}

// JoinSegments builds the full transcript text the way the rest of the
// pipeline consumes it: segment texts separated by single spaces.
func JoinSegments(segments []types.TranscriptSegment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}
