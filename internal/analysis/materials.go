package analysis

import "strings"

// MaterialIndex groups rows by normalized material key. It is built once per
// run and only read afterwards.
type MaterialIndex struct {
	groups map[string][]*Row
}

// NormalizeMaterial lowercases and trims a material string
func NormalizeMaterial(material string) string {
	return strings.ToLower(strings.TrimSpace(material))
}

// NewMaterialIndex indexes rows in table order. Rows with a blank material
// are left out.
func NewMaterialIndex(rows []Row) *MaterialIndex {
	idx := &MaterialIndex{groups: make(map[string][]*Row)}
	for i := range rows {
		key := NormalizeMaterial(rows[i].Material)
		if key == "" {
			continue
		}
		idx.groups[key] = append(idx.groups[key], &rows[i])
	}
	return idx
}

// Group returns the rows sharing a material, in insertion order
func (m *MaterialIndex) Group(material string) []*Row {
	key := NormalizeMaterial(material)
	if key == "" {
		return nil
	}
	return m.groups[key]
}

// Len returns the number of distinct materials
func (m *MaterialIndex) Len() int {
	return len(m.groups)
}
