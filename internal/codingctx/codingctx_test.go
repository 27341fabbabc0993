package codingctx

import (
	"strings"
	"testing"
	"time"

	"github.com/emojikey/emojikey-server/internal/emojikey"
)

const codingSample = "I need to debug this function. The algorithm throws an exception " +
	"when the database query returns no rows, and the stack trace points at the API layer."

func TestDetect(t *testing.T) {
	if !Detect(codingSample) {
		t.Fatalf("Detect() = false for programming text")
	}
	if Detect("short") {
		t.Fatalf("Detect() = true for text below the sample minimum")
	}
	prose := strings.Repeat("the weather was lovely and we talked about dinner plans ", 5)
	if Detect(prose) {
		t.Fatalf("Detect() = true for non-programming text")
	}
}

func TestGenerateKeyIsValidV3(t *testing.T) {
	key := GenerateKey(codingSample)
	if key == "" {
		t.Fatalf("GenerateKey() = empty for programming text")
	}
	parsed, err := emojikey.Parse(key)
	if err != nil {
		t.Fatalf("generated key does not parse: %v", err)
	}
	if parsed.Version != emojikey.VersionV3 || parsed.Components[0].Name != "ME" {
		t.Fatalf("generated key shape unexpected: %q", key)
	}
	if !HasCodingDimensions(key) {
		t.Fatalf("generated key carries no coding dimensions: %q", key)
	}
}

func TestHasCodingDimensions(t *testing.T) {
	if !HasCodingDimensions("[ME|💻🔧8∠30]") {
		t.Fatalf("HasCodingDimensions() = false, want true")
	}
	if HasCodingDimensions("[ME|🧠🎨8∠45]") {
		t.Fatalf("HasCodingDimensions() = true, want false")
	}
}

func TestSampleStoreBoundsAndReset(t *testing.T) {
	s := NewCacheSampleStore(time.Minute)

	for i := 0; i < maxSamplesPerConversation+3; i++ {
		s.Add("c1", "sample")
	}
	sample := s.Sample("c1")
	if strings.Count(sample, "sample") != maxSamplesPerConversation {
		t.Fatalf("sample buffer not bounded: %d entries", strings.Count(sample, "sample"))
	}

	s.Add("c3", strings.Repeat("x", maxSampleLength+500))
	if got := len(s.Sample("c3")); got != maxSampleLength {
		t.Fatalf("oversized message not truncated: len = %d, want %d", got, maxSampleLength)
	}

	s.Reset("c1")
	if s.Sample("c1") != "" {
		t.Fatalf("Reset() did not clear samples")
	}

	// Conversations are isolated from one another.
	s.Add("c2", "only here")
	if s.Sample("c1") != "" || s.Sample("c2") == "" {
		t.Fatalf("samples leaked across conversations")
	}
}

func TestSampleStoreRedactsPII(t *testing.T) {
	s := NewCacheSampleStore(time.Minute)

	s.Add("c1", "email me at dev@example.com or call +1 415-555-0142 about the code")
	sample := s.Sample("c1")
	if strings.Contains(sample, "dev@example.com") {
		t.Fatalf("email survived redaction: %q", sample)
	}
	if strings.Contains(sample, "415-555-0142") {
		t.Fatalf("phone survived redaction: %q", sample)
	}
	if !strings.Contains(sample, "[REDACTED_EMAIL]") || !strings.Contains(sample, "[REDACTED_PHONE]") {
		t.Fatalf("redaction markers missing: %q", sample)
	}
	if !strings.Contains(sample, "about the code") {
		t.Fatalf("surrounding text mangled: %q", sample)
	}
}

func TestRedactPIICardBeforePhone(t *testing.T) {
	out := redactPII("card 4111 1111 1111 1111 on file")
	if !strings.Contains(out, "[REDACTED_CARD]") {
		t.Fatalf("card number not redacted: %q", out)
	}
	if strings.Contains(out, "4111") {
		t.Fatalf("digits leaked: %q", out)
	}
}
