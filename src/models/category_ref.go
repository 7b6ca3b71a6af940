package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

const UncategorizedName = "Uncategorized"

// CategoryRef points at a category by id, or at nothing at all.
// The zero value is unresolved.
type CategoryRef struct {
	id string
}

func KnownCategory(id string) CategoryRef {
	return CategoryRef{id: strings.TrimSpace(id)}
}

func Unresolved() CategoryRef {
	return CategoryRef{}
}

func (r CategoryRef) ID() (string, bool) {
	return r.id, r.id != ""
}

func (r CategoryRef) IsKnown() bool {
	return r.id != ""
}

func (r CategoryRef) Matches(categoryID string) bool {
	return r.id != "" && r.id == categoryID
}

// Resolve returns the display name for the reference. Dangling ids and
// unresolved references both resolve to "Uncategorized".
func (r CategoryRef) Resolve(names map[string]string) string {
	if !r.IsKnown() {
		return UncategorizedName
	}
	if name, ok := names[r.id]; ok {
		return name
	}
	return UncategorizedName
}

func (r CategoryRef) String() string {
	if !r.IsKnown() {
		return UncategorizedName
	}
	return r.id
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	if !r.IsKnown() {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Unresolved()
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*r = KnownCategory(id)
	return nil
}

// CategoryNames indexes category names by id for reference resolution.
func CategoryNames(categories []Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}
