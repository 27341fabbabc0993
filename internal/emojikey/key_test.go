package emojikey

import (
	"errors"
	"strings"
	"testing"
)

const v3Key = "[ME|🧠🎨8∠45|🔒🔓9∠60]~[CONTENT|💻🧩9∠15]~[YOU|🎓🌱8∠35]"

func TestClassifyNormalAndSuper(t *testing.T) {
	if got := Classify(v3Key); got != KeyTypeNormal {
		t.Fatalf("Classify() = %q, want %q", got, KeyTypeNormal)
	}
	if got := Classify(FormatAsRollup(v3Key)); got != KeyTypeSuper {
		t.Fatalf("Classify(rollup) = %q, want %q", got, KeyTypeSuper)
	}
}

func TestFormatAsRollupIdempotent(t *testing.T) {
	once := FormatAsRollup(v3Key)
	twice := FormatAsRollup(once)
	if once != twice {
		t.Fatalf("FormatAsRollup not idempotent: %q vs %q", once, twice)
	}
	if !strings.HasPrefix(once, "[[×10") || !strings.HasSuffix(once, "]]") {
		t.Fatalf("rollup marker missing: %q", once)
	}
}

func TestParseV3Components(t *testing.T) {
	key, err := Parse(v3Key)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if key.Version != VersionV3 {
		t.Fatalf("Version = %q, want %q", key.Version, VersionV3)
	}
	if len(key.Components) != 3 {
		t.Fatalf("len(Components) = %d, want 3", len(key.Components))
	}
	if key.Components[0].Name != "ME" || len(key.Components[0].Dimensions) != 2 {
		t.Fatalf("unexpected ME component: %+v", key.Components[0])
	}
	if key.String() != v3Key {
		t.Fatalf("String() = %q, want %q", key.String(), v3Key)
	}
}

func TestParseV3ArrowDimensions(t *testing.T) {
	key, err := Parse("[ME|🧠➡️🔧|🔒⬅️🔓|😊↔️🤔]")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if key.Version != VersionV3 {
		t.Fatalf("Version = %q, want %q", key.Version, VersionV3)
	}
	if len(key.Components[0].Dimensions) != 3 {
		t.Fatalf("dimensions = %d, want 3", len(key.Components[0].Dimensions))
	}
}

func TestParseV2Structured(t *testing.T) {
	v2 := "[🧠💡]⟨🔍🔄⟩[🎯📚]{😊🤔}➡️~[🌈🌟]|🔒🔒|📊↗️|😂➕|🤝↔️|"
	key, err := Parse(v2)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if key.Version != VersionV2 {
		t.Fatalf("Version = %q, want %q", key.Version, VersionV2)
	}
}

func TestParseV1Token(t *testing.T) {
	key, err := Parse("🧠💡🔍🔄🎯📚😊🤔")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if key.Version != VersionV1 {
		t.Fatalf("Version = %q, want %q", key.Version, VersionV1)
	}
}

func TestParseRollupStripsMarker(t *testing.T) {
	key, err := Parse(FormatAsRollup(v3Key))
	if err != nil {
		t.Fatalf("Parse(rollup) error = %v", err)
	}
	if key.Version != VersionV3 {
		t.Fatalf("Version = %q, want %q", key.Version, VersionV3)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"unknown component", "[SELF|🧠🎨8∠45]"},
		{"angle out of range", "[ME|🧠🎨8∠200]"},
		{"missing magnitude", "[ME|🧠🎨∠45]"},
		{"no dimensions", "[ME]"},
		{"stray structure", "🧠|💡"},
		{"nested rollup", "[[×10[[×10[ME|🧠🎨8∠45]]]]]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.payload); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Parse(%q) error = %v, want ErrInvalid", tc.payload, err)
			}
		})
	}
}

func TestValidateAcceptsKnownGrammars(t *testing.T) {
	for _, payload := range []string{
		v3Key,
		FormatAsRollup(v3Key),
		"[🧠💡]⟨🔍🔄⟩[🎯📚]{😊🤔}➡️~[🌈🌟]|🔒🔒|📊|😂|🤝|",
		"🧠💡🔍🔄",
	} {
		if err := Validate(payload); err != nil {
			t.Fatalf("Validate(%q) error = %v", payload, err)
		}
	}
}
