package masking

import "strings"

const maskToken = "****"

var contactKeys = map[string]struct{}{
	"email":   {},
	"phone":   {},
	"address": {},
}

// MaskValue redacts a value while keeping a short suffix so operators can still
// tell records apart.
func MaskValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskContact returns a copy of metadata with customer contact fields masked.
// Nested maps are walked; other values pass through unchanged.
func MaskContact(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[trimmedKey] = maskEntry(trimmedKey, value)
	}

	if len(masked) == 0 {
		return nil
	}
	return masked
}

func maskEntry(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if _, ok := contactKeys[strings.ToLower(key)]; ok {
			return MaskValue(cast)
		}
		return cast
	case map[string]any:
		return MaskContact(cast)
	default:
		return value
	}
}
