package content

import "fmt"

// Validate checks the structural shape of a candidate document: all six
// top-level sections present, arrays where arrays belong, objects where
// objects belong. It fails fast on the first violation and returns a plain
// error whose message names the offending property; callers surface it
// verbatim.
func Validate(candidate any) error {
	doc, ok := candidate.(map[string]any)
	if !ok || doc == nil {
		return fmt.Errorf("portfolio data must be an object")
	}

	for _, s := range sections {
		value, present := doc[s.name]
		if !present {
			return fmt.Errorf("missing required property: %s", s.name)
		}
		switch s.kind {
		case kindArray:
			if _, ok := value.([]any); !ok {
				return fmt.Errorf("%s must be an array", s.name)
			}
		default:
			if _, ok := value.(map[string]any); !ok {
				return fmt.Errorf("%s must be an object", s.name)
			}
		}
	}
	return nil
}
