package harness

// Obj builds a provider object payload: the object discriminator, id,
// created, and any extra fields.
func Obj(object, id string, created int64, extra map[string]any) map[string]any {
	m := map[string]any{
		"object":   object,
		"id":       id,
		"created":  created,
		"livemode": false,
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// ChildList builds a complete embedded list envelope.
func ChildList(items ...any) map[string]any {
	if items == nil {
		items = []any{}
	}
	return map[string]any{
		"object":   "list",
		"data":     items,
		"has_more": false,
	}
}

// TruncatedChildList builds an embedded list envelope with has_more=true,
// as the provider ships when a nested list exceeds its page size.
func TruncatedChildList(items ...any) map[string]any {
	l := ChildList(items...)
	l["has_more"] = true
	return l
}
