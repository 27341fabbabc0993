package emojikey

// ExtractComponent returns the dimension tokens of the named component
// of a v3 payload. The second return is false when the payload is not
// v3 or lacks the component.
func ExtractComponent(payload, name string) ([]string, bool) {
	key, err := Parse(payload)
	if err != nil || key.Version != VersionV3 {
		return nil, false
	}
	for _, c := range key.Components {
		if c.Name == name {
			dims := make([]string, len(c.Dimensions))
			copy(dims, c.Dimensions)
			return dims, true
		}
	}
	return nil, false
}

// MergeComponents folds overlay's dimensions into base. For every
// component present in both payloads the result is the set union of
// dimension tokens, keeping base's order and appending novel overlay
// tokens. Components only the overlay has are dropped: the merge never
// materializes a component the base did not carry. If either payload is
// not a valid v3 key the base is returned unchanged.
func MergeComponents(base, overlay string) string {
	baseKey, err := Parse(base)
	if err != nil || baseKey.Version != VersionV3 {
		return base
	}
	overlayKey, err := Parse(overlay)
	if err != nil || overlayKey.Version != VersionV3 {
		return base
	}

	overlayByName := make(map[string][]string, len(overlayKey.Components))
	for _, c := range overlayKey.Components {
		overlayByName[c.Name] = c.Dimensions
	}

	merged := make([]Component, 0, len(baseKey.Components))
	for _, c := range baseKey.Components {
		dims := make([]string, 0, len(c.Dimensions))
		seen := make(map[string]bool, len(c.Dimensions))
		for _, d := range c.Dimensions {
			if !seen[d] {
				seen[d] = true
				dims = append(dims, d)
			}
		}
		for _, d := range overlayByName[c.Name] {
			if !seen[d] {
				seen[d] = true
				dims = append(dims, d)
			}
		}
		merged = append(merged, Component{Name: c.Name, Dimensions: dims})
	}

	return Key{Version: VersionV3, Components: merged}.String()
}
