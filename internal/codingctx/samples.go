package codingctx

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	maxSamplesPerConversation = 5
	maxSampleLength           = 1000
)

// SampleStore holds recent conversation text per conversation ID so the
// scorer has something to look at. Scoping state behind this interface
// keeps concurrent conversations isolated and the scorer testable.
type SampleStore interface {
	Add(conversationID, message string)
	Sample(conversationID string) string
	Reset(conversationID string)
}

// CacheSampleStore keeps bounded sample buffers in an expiring cache so
// abandoned conversations do not pin memory for the process lifetime.
type CacheSampleStore struct {
	cache *gocache.Cache
}

func NewCacheSampleStore(ttl time.Duration) *CacheSampleStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CacheSampleStore{cache: gocache.New(ttl, ttl)}
}

func (s *CacheSampleStore) Add(conversationID, message string) {
	if conversationID == "" || strings.TrimSpace(message) == "" {
		return
	}
	message = redactPII(message)
	if len(message) > maxSampleLength {
		message = message[:maxSampleLength]
	}

	var samples []string
	if v, ok := s.cache.Get(conversationID); ok {
		samples = v.([]string)
	}
	samples = append(samples, message)
	if len(samples) > maxSamplesPerConversation {
		samples = samples[len(samples)-maxSamplesPerConversation:]
	}
	s.cache.SetDefault(conversationID, samples)
}

func (s *CacheSampleStore) Sample(conversationID string) string {
	v, ok := s.cache.Get(conversationID)
	if !ok {
		return ""
	}
	return strings.Join(v.([]string), "\n\n")
}

func (s *CacheSampleStore) Reset(conversationID string) {
	s.cache.Delete(conversationID)
}
