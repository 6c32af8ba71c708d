package monitor

import (
	"fmt"
	"strings"

	"ai-grammar-companion/internal/dto"
)

// DeriveFieldID computes the deterministic identifier for an editable
// field: the explicit element id, else its name, else a
// tag+class+ordinal fallback. The ordinal is the index among same-tag
// elements at event time, so the fallback is not stable across DOM
// mutations that reorder same-tag siblings. History entries are keyed
// by this identifier, so that instability is a documented limitation,
// not something to repair here.
func DeriveFieldID(field dto.FieldDescriptor) string {
	if field.ID != "" {
		return field.ID
	}
	if field.Name != "" {
		return "name-" + field.Name
	}

	tag := strings.ToLower(field.TagName)
	class := strings.Join(strings.Fields(field.ClassName), "-")
	if class == "" {
		class = "noclass"
	}
	return fmt.Sprintf("%s-%s-%d", tag, class, field.Ordinal)
}
