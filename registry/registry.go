package registry

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"regexp"

	"github.com/google/uuid"
)

var ErrInvalidSessionID = errors.New("session id contains disallowed characters")

var (
	sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	collectionUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

	// tried in order after the structured ?v= lookup
	pathPatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtu\.be/([^?/&]+)`),
		regexp.MustCompile(`embed/([^?/&]+)`),
		regexp.MustCompile(`v=([^&]+)`),
	}
)

// Key identifies one knowledge base: the same (videoId, sessionId) pair always
// resolves to the same collection name. Identity is purely syntactic on the
// extracted video id plus the explicit session id; two URLs spelling the same
// video differently may map to different keys.
type Key struct {
	VideoID    string
	SessionID  string
	NewSession bool
}

func (k Key) CollectionName() string {
	return fmt.Sprintf("yt_%s_%s", collectionUnsafe.ReplaceAllString(k.VideoID, "_"), k.SessionID)
}

// CollectionLister is the slice of the vector index the registry needs for
// its create-vs-reuse decision.
type CollectionLister interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
}

type Registry struct {
	lister CollectionLister
}

func New(lister CollectionLister) *Registry {
	return &Registry{
		lister: lister,
	}
}

// Resolve derives the collection key for a request. An absent sessionId mints
// a fresh one and marks the request as a new session; a present sessionId is
// validated against the allow-listed character set.
func (r *Registry) Resolve(videoURL, sessionID string) (Key, error) {
	key := Key{VideoID: ExtractVideoID(videoURL)}

	if sessionID == "" {
		key.SessionID = uuid.NewString()
		key.NewSession = true
		return key, nil
	}

	if !sessionIDPattern.MatchString(sessionID) {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	key.SessionID = sessionID
	return key, nil
}

// Exists asks the index whether the collection is already there. The index is
// the source of truth and may be mutated out-of-band, so the answer is never
// cached locally.
func (r *Registry) Exists(ctx context.Context, key Key) (bool, error) {
	return r.lister.CollectionExists(ctx, key.CollectionName())
}

// ExtractVideoID pulls the video id out of any URL string: the ?v= query
// parameter first, then the known path shapes, else an FNV-1a hash of the raw
// URL so that every input maps to some stable pseudo-id. The short hash can
// collide across distinct URLs sharing accidental structure; that risk is
// accepted for now.
func ExtractVideoID(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		if v := u.Query().Get("v"); v != "" {
			return v
		}
	}

	for _, p := range pathPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}

	h := fnv.New64a()
	h.Write([]byte(raw))
	return fmt.Sprintf("url_%x", h.Sum64())
}
