package content

// Merge layers updates over existing. Every top-level key from updates
// replaces the existing value wholesale, except profile and config, which are
// shallow-merged field by field. Arrays are always replaced, never combined
// item-wise, and resume is replaced too. The asymmetry is load-bearing:
// callers rely on a partial profile edit keeping untouched fields, and on a
// shorter projects list actually shrinking the result.
func Merge(existing, updates Document) Document {
	result := Document{}
	for k, v := range existing {
		result[k] = v
	}
	for k, v := range updates {
		if k == "profile" || k == "config" {
			result[k] = shallowMerge(asObject(existing[k]), asObject(v))
			continue
		}
		result[k] = v
	}
	return result
}

// overlaySection applies one fetched default file onto the document. Object
// sections shallow-merge over their zero values; array sections replace only
// when the fetched value really is an array, so a malformed file degrades to
// the default instead of corrupting the slot.
func overlaySection(doc Document, s section, fetched any) {
	switch s.kind {
	case kindArray:
		if arr, ok := fetched.([]any); ok {
			doc[s.name] = arr
		}
	default:
		if obj, ok := fetched.(map[string]any); ok {
			doc[s.name] = shallowMerge(asObject(doc[s.name]), obj)
		}
	}
}

func shallowMerge(base, override map[string]any) map[string]any {
	merged := map[string]any{}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func asObject(v any) map[string]any {
	if obj, ok := v.(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}
