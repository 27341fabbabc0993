package emojikey

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// KeyType distinguishes atomic observations from rollup summaries.
type KeyType string

const (
	KeyTypeNormal KeyType = "normal"
	KeyTypeSuper  KeyType = "super"
)

// Version identifies which wire grammar a payload parses under.
type Version string

const (
	// VersionV1 is an opaque emoji token, historically 48 characters.
	VersionV1 Version = "v1"
	// VersionV2 is the delimited topic/approach/goal/tone/relationship grammar.
	VersionV2 Version = "v2"
	// VersionV3 is the component/dimension grammar with ME, CONTENT and YOU blocks.
	VersionV3 Version = "v3"
)

// Rollup markers. A super key wraps a payload as [[×10<payload>]].
const (
	rollupPrefix     = "[["
	rollupSuffix     = "]]"
	RollupMultiplier = 10
)

const componentConnector = "~"

// ErrInvalid reports a payload that matches no known grammar.
var ErrInvalid = errors.New("invalid emojikey")

// Component is one named section of a v3 key.
type Component struct {
	Name       string
	Dimensions []string
}

// Key is the parsed form of an emojikey payload. Components is populated
// only for v3 keys; v1 and v2 payloads stay opaque.
type Key struct {
	Raw        string
	Version    Version
	Components []Component
}

var componentNames = map[string]bool{
	"ME":      true,
	"CONTENT": true,
	"YOU":     true,
}

// Dimension token shapes: emoji pair + magnitude digit + ∠ + angle,
// or emoji pair split by a directional arrow.
var (
	dimAngleRe = regexp.MustCompile(`^(.+?)([0-9])∠([0-9]{1,3})$`)
	dimArrowRe = regexp.MustCompile(`^(.+?)(➡️|⬅️|↔️)(.+)$`)
)

// Classify reports whether a payload is a rollup (super) key. This is a
// pure prefix/suffix test; it never parses the inner grammar.
func Classify(payload string) KeyType {
	if strings.HasPrefix(payload, rollupPrefix) && strings.HasSuffix(payload, rollupSuffix) {
		return KeyTypeSuper
	}
	return KeyTypeNormal
}

// FormatAsRollup wraps a payload in the rollup marker. Already-wrapped
// payloads are returned unchanged.
func FormatAsRollup(payload string) string {
	if Classify(payload) == KeyTypeSuper {
		return payload
	}
	return fmt.Sprintf("%s×%d%s%s", rollupPrefix, RollupMultiplier, payload, rollupSuffix)
}

// Parse classifies a payload under the v1/v2/v3 grammars and, for v3,
// decomposes it into components. Rollup wrapping is stripped before the
// inner grammar is inspected.
func Parse(payload string) (Key, error) {
	raw := payload
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return Key{}, fmt.Errorf("%w: empty payload", ErrInvalid)
	}

	inner := trimmed
	if Classify(trimmed) == KeyTypeSuper {
		inner = stripRollup(trimmed)
		if strings.TrimSpace(inner) == "" {
			return Key{}, fmt.Errorf("%w: empty rollup body", ErrInvalid)
		}
		if Classify(inner) == KeyTypeSuper {
			return Key{}, fmt.Errorf("%w: nested rollup", ErrInvalid)
		}
	}

	if looksLikeV3(inner) {
		comps, err := parseComponents(inner)
		if err != nil {
			return Key{}, err
		}
		return Key{Raw: raw, Version: VersionV3, Components: comps}, nil
	}

	if strings.Contains(inner, "⟨") && strings.Contains(inner, "⟩") {
		return Key{Raw: raw, Version: VersionV2}, nil
	}

	// v1 tokens are atomic: structural punctuation means a malformed
	// v2/v3 payload, not a v1 key.
	if strings.ContainsAny(inner, "[]|") {
		return Key{}, fmt.Errorf("%w: unrecognized structured payload %q", ErrInvalid, trimmed)
	}
	return Key{Raw: raw, Version: VersionV1}, nil
}

// Validate reports whether a payload may be persisted.
func Validate(payload string) error {
	_, err := Parse(payload)
	return err
}

func stripRollup(payload string) string {
	inner := strings.TrimPrefix(payload, rollupPrefix)
	inner = strings.TrimSuffix(inner, rollupSuffix)
	if strings.HasPrefix(inner, "×") {
		rest := strings.TrimPrefix(inner, "×")
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		inner = rest[i:]
	}
	return inner
}

func looksLikeV3(payload string) bool {
	for name := range componentNames {
		if strings.HasPrefix(payload, "["+name+"|") {
			return true
		}
	}
	return false
}

func parseComponents(payload string) ([]Component, error) {
	parts := strings.Split(payload, componentConnector)
	comps := make([]Component, 0, len(parts))
	for _, part := range parts {
		comp, err := parseComponent(part)
		if err != nil {
			return nil, err
		}
		comps = append(comps, comp)
	}
	return comps, nil
}

func parseComponent(block string) (Component, error) {
	if !strings.HasPrefix(block, "[") || !strings.HasSuffix(block, "]") {
		return Component{}, fmt.Errorf("%w: component %q is not bracketed", ErrInvalid, block)
	}
	body := block[1 : len(block)-1]
	fields := strings.Split(body, "|")
	if len(fields) < 2 {
		return Component{}, fmt.Errorf("%w: component %q has no dimensions", ErrInvalid, block)
	}
	name := fields[0]
	if !componentNames[name] {
		return Component{}, fmt.Errorf("%w: unknown component %q", ErrInvalid, name)
	}
	dims := fields[1:]
	for _, dim := range dims {
		if err := validateDimension(dim); err != nil {
			return Component{}, err
		}
	}
	return Component{Name: name, Dimensions: dims}, nil
}

func validateDimension(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty dimension", ErrInvalid)
	}
	if m := dimAngleRe.FindStringSubmatch(token); m != nil {
		angle, err := strconv.Atoi(m[3])
		if err != nil || angle > 180 {
			return fmt.Errorf("%w: dimension %q angle out of range [0,180]", ErrInvalid, token)
		}
		return nil
	}
	if dimArrowRe.MatchString(token) {
		return nil
	}
	return fmt.Errorf("%w: dimension %q is neither magnitude/angle nor arrow form", ErrInvalid, token)
}

// String reassembles a v3 key from its components. For v1/v2 keys the
// raw payload is returned untouched.
func (k Key) String() string {
	if k.Version != VersionV3 || len(k.Components) == 0 {
		return k.Raw
	}
	parts := make([]string, 0, len(k.Components))
	for _, c := range k.Components {
		parts = append(parts, "["+c.Name+"|"+strings.Join(c.Dimensions, "|")+"]")
	}
	return strings.Join(parts, componentConnector)
}
