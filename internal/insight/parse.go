package insight

import (
	"encoding/json"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/mycelian/mycelian-journal/internal/model"
)

// Strategy list bounds. Generated lists shorter than MinStrategies are padded
// from the fallback list.
const (
	MinStrategies = 3
	MaxStrategies = 5
)

var (
	numberedLine  = regexp.MustCompile(`^\d+\.\s*(.+)$`)
	bulletLine    = regexp.MustCompile(`^[•\-*]\s*(.+)$`)
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	codeFence     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// ParseStrategies extracts list items from generated text. Numbered and
// bulleted lines win; otherwise sentences longer than 10 characters are used.
// The result is capped at MaxStrategies.
func ParseStrategies(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			m = bulletLine.FindStringSubmatch(line)
		}
		if m != nil {
			if s := strings.TrimSpace(m[1]); s != "" {
				out = append(out, s)
			}
		}
	}

	if len(out) == 0 {
		for _, frag := range sentenceSplit.Split(text, -1) {
			frag = strings.TrimSpace(frag)
			if len([]rune(frag)) > 10 {
				out = append(out, frag)
			}
		}
	}

	if len(out) > MaxStrategies {
		out = out[:MaxStrategies]
	}
	return out
}

// padStrategies tops up parsed strategies to MinStrategies from fallback,
// skipping items already present.
func padStrategies(parsed, fallback []string) []string {
	out := append([]string{}, parsed...)
	for _, f := range fallback {
		if len(out) >= MinStrategies {
			break
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// ParsePlan extracts the four-bucket plan from generated text. JSON may be
// wrapped in a code fence or surrounded by prose; keys are matched loosely
// ("shortTerm", "short_term", "Short-term goals"). It reports false when no
// bucket could be read.
func ParsePlan(text string) (model.InterventionPlan, bool) {
	var plan model.InterventionPlan

	raw := extractJSON(text)
	if raw == "" {
		return plan, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return plan, false
	}

	buckets := []struct {
		match func(k string) bool
		dst   *[]string
	}{
		{func(k string) bool { return strings.Contains(k, "immediate") }, &plan.Immediate},
		{func(k string) bool { return strings.Contains(k, "short") }, &plan.ShortTerm},
		{func(k string) bool { return strings.Contains(k, "long") }, &plan.LongTerm},
		{func(k string) bool { return strings.Contains(k, "resource") || strings.Contains(k, "support") }, &plan.Resources},
	}

	// sorted keys; the first key for a bucket wins
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	found := false
	for _, key := range keys {
		items := stringList(fields[key])
		if len(items) == 0 {
			continue
		}
		k := strings.ToLower(key)
		for _, b := range buckets {
			if !b.match(k) {
				continue
			}
			if len(*b.dst) == 0 {
				*b.dst = items
				found = true
			}
			break
		}
	}
	return plan, found
}

func extractJSON(text string) string {
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func stringList(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := list[:0]
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && strings.TrimSpace(one) != "" {
		return []string{strings.TrimSpace(one)}
	}
	return nil
}

// fillPlan copies canonical buckets into any that are empty.
func fillPlan(p model.InterventionPlan, canonical model.InterventionPlan) model.InterventionPlan {
	if len(p.Immediate) == 0 {
		p.Immediate = canonical.Immediate
	}
	if len(p.ShortTerm) == 0 {
		p.ShortTerm = canonical.ShortTerm
	}
	if len(p.LongTerm) == 0 {
		p.LongTerm = canonical.LongTerm
	}
	if len(p.Resources) == 0 {
		p.Resources = canonical.Resources
	}
	return p
}
