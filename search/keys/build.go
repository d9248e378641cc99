package keys

// TagInfo is a tag key as reported by a tag store
type TagInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name,omitempty"`
	TotalValues int    `json:"total_values"`
}

// DefaultExcludedTags are never offered as filter keys on event search
var DefaultExcludedTags = []string{
	"environment",
	"issue",
	"issue.id",
	"performance.issue_ids",
	"transaction.op",
	"transaction.status",
}

// DefaultEventFields returns the built-in event fields every registry knows
func DefaultEventFields() []KeyMeta {
	return []KeyMeta{
		{Key: "id", ValueType: ValueText, Description: "Event ID"},
		{Key: "message", ValueType: ValueText, Description: "Event message"},
		{Key: "timestamp", ValueType: ValueDate, Aliases: []string{"event.timestamp"}, Description: "When the event occurred"},
		{Key: "title", ValueType: ValueText, Description: "Event title"},
		{Key: "location", ValueType: ValueText, Description: "Culprit location"},
		{Key: "has", ValueType: ValueText, Description: "Events that carry the given tag"},
		{Key: "is", ValueType: ValueText, DisallowNegation: true, Values: []string{"resolved", "unresolved", "archived", "assigned", "unassigned", "for_review", "linked", "unlinked"}, Description: "Issue status"},
		{Key: "event.type", ValueType: ValueText, Values: []string{"error", "default", "transaction", "csp"}, Description: "Event type"},
		{Key: "error.handled", ValueType: ValueBoolean, Description: "Whether the error was handled"},
		{Key: "error.unhandled", ValueType: ValueBoolean, Description: "Whether the error was unhandled"},
		{Key: "error.type", ValueType: ValueText, Description: "Exception type"},
		{Key: "stack.filename", ValueType: ValueText, Description: "Filename in the stack trace"},
		{Key: "transaction.duration", ValueType: ValueDuration, Description: "Transaction duration"},
		{Key: "device.battery_level", ValueType: ValuePercentage, Description: "Battery level"},
		{Key: "user.display", ValueType: ValueText, Description: "User email, username, ID or IP"},
		{Key: "release.version", ValueType: ValueVersion, Description: "Semantic release version"},
	}
}

// Build assembles a registry from tag store keys and event fields.
// Event fields replace tags with the same key; excluded keys are dropped.
func Build(tags []TagInfo, eventFields []KeyMeta, excluded []string) *Registry {
	skip := make(map[string]bool, len(excluded))
	for _, key := range excluded {
		skip[key] = true
	}

	metas := make([]KeyMeta, 0, len(tags)+len(eventFields))
	for _, tag := range tags {
		if skip[tag.Key] {
			continue
		}
		metas = append(metas, KeyMeta{
			Key:         tag.Key,
			Name:        tag.Name,
			Kind:        FieldKindTag,
			ValueType:   ValueText,
			TotalValues: tag.TotalValues,
		})
	}
	for _, field := range eventFields {
		if skip[field.Key] {
			continue
		}
		field.Kind = FieldKindEventField
		metas = append(metas, field)
	}
	return New(metas)
}
