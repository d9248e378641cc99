package keys

import "sort"

// Section labels shown above each group of keys
const (
	LabelEventFields = "Event Filters"
	LabelEventTags   = "Event Tags"
)

// Section is a named group of keys in display order
type Section struct {
	Value    FieldKind `json:"value"`
	Label    string    `json:"label"`
	Children []string  `json:"children"`
}

// Sectionize orders event fields alphabetically, then tags by descending
// TotalValues with ties broken alphabetically.
func Sectionize(metas []KeyMeta) []Section {
	var fields, tags []KeyMeta
	for _, m := range metas {
		switch m.Kind {
		case FieldKindEventField:
			fields = append(fields, m)
		default:
			tags = append(tags, m)
		}
	}

	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].TotalValues != tags[j].TotalValues {
			return tags[i].TotalValues > tags[j].TotalValues
		}
		return tags[i].Key < tags[j].Key
	})

	return []Section{
		{Value: FieldKindEventField, Label: LabelEventFields, Children: keyNames(fields)},
		{Value: FieldKindTag, Label: LabelEventTags, Children: keyNames(tags)},
	}
}

func keyNames(metas []KeyMeta) []string {
	names := make([]string, len(metas))
	for i, m := range metas {
		names[i] = m.Key
	}
	return names
}
