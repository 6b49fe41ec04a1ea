package llm

import (
	"context"
	"strings"
)

type purposeKey struct{}

// WithPurpose labels requests made with ctx for the event log. Parts are
// joined with ":" so usage can be grouped by caller and game type, e.g.
// WithPurpose(ctx, "coherence-judge", "summarize").
func WithPurpose(ctx context.Context, parts ...string) context.Context {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ctx
	}
	return context.WithValue(ctx, purposeKey{}, strings.Join(kept, ":"))
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}
