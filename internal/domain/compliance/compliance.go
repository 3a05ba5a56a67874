package compliance

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// sensitive tags always require manual approval, whatever the space allows.
var sensitive = map[string]struct{}{
	"alcohol":        {},
	"tobacco":        {},
	"gambling":       {},
	"adult_content":  {},
	"political":      {},
	"religious":      {},
	"pharmaceutical": {},
	"weapons":        {},
}

var labels = map[string]string{
	"alcohol":          "Alcohol",
	"tobacco":          "Tobacco/Vaping",
	"gambling":         "Gambling",
	"adult_content":    "Adult Content",
	"political":        "Political",
	"religious":        "Religious",
	"pharmaceutical":   "Pharmaceutical",
	"weapons":          "Weapons",
	"food_beverage":    "Food & Beverage",
	"retail":           "Retail",
	"automotive":       "Automotive",
	"technology":       "Technology",
	"entertainment":    "Entertainment",
	"healthcare":       "Healthcare",
	"financial":        "Financial Services",
	"real_estate":      "Real Estate",
	"education":        "Education",
	"travel":           "Travel & Tourism",
	"fashion":          "Fashion & Apparel",
	"sports":           "Sports & Fitness",
	"non_profit":       "Non-Profit",
	"local_business":   "Local Business",
	"events":           "Events",
	"public_service":   "Public Service",
	"cannabis":         "Cannabis",
	"dating":           "Dating",
	"cryptocurrency":   "Cryptocurrency",
	"fast_food":        "Fast Food",
	"energy_drinks":    "Energy Drinks",
	"firearms_related": "Firearms Related",
}

// SensitiveCategories lists the tags that always trigger manual approval.
func SensitiveCategories() []string {
	out := make([]string, 0, len(sensitive))
	for tag := range sensitive {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func IsSensitive(tag string) bool {
	_, ok := sensitive[normalize(tag)]
	return ok
}

// Label maps an internal tag value to its human-readable name.
func Label(tag string) string {
	tag = normalize(tag)
	if l, ok := labels[tag]; ok {
		return l
	}
	words := strings.Fields(strings.ReplaceAll(tag, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Result summarizes how selected content relates to a space's restrictions.
type Result struct {
	Conflicts      []string
	ConflictLabels []string
	Sensitive      bool
	NeedsApproval  bool
}

// RequiresConfirmation is true when the advertiser must explicitly acknowledge
// the conflicting tags before the draft can be submitted.
func (r Result) RequiresConfirmation() bool {
	return len(r.Conflicts) > 0
}

// Check intersects the selected content tags with the space's prohibited list.
func Check(selected, prohibited []string) Result {
	banned := make(map[string]struct{}, len(prohibited))
	for _, tag := range prohibited {
		if tag = normalize(tag); tag != "" {
			banned[tag] = struct{}{}
		}
	}

	res := Result{}
	seen := make(map[string]struct{}, len(selected))
	for _, tag := range selected {
		tag = normalize(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := sensitive[tag]; ok {
			res.Sensitive = true
		}
		if _, ok := banned[tag]; ok {
			res.Conflicts = append(res.Conflicts, tag)
			res.ConflictLabels = append(res.ConflictLabels, Label(tag))
		}
	}
	res.NeedsApproval = len(res.Conflicts) > 0 || len(banned) > 0 || res.Sensitive
	return res
}

func normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
