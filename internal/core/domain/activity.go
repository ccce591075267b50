package domain

import "strings"

// ActivityIdentifierKey is the payload key under which the host places the
// unique identifier of the search result the user selected.
const ActivityIdentifierKey = "searchable_item_identifier"

// ActivityIdentifier extracts the selected item identifier from a
// continuation payload. It returns false when the key is missing, is not a
// string, or is blank.
func ActivityIdentifier(payload map[string]any) (string, bool) {
	raw, ok := payload[ActivityIdentifierKey]
	if !ok {
		return "", false
	}
	id, ok := raw.(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}
