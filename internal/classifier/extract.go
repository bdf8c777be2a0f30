package classifier

import (
	"regexp"
	"strings"
)

const (
	DefaultProductName    = "New Product"
	DefaultFeatureName    = "New Feature"
	DefaultMarket         = "B2B SaaS"
	DefaultTargetAudience = "Product Managers"
	DefaultJurisdiction   = "US"
)

const (
	MarketB2BEnterprise = "B2B Enterprise"
	MarketB2CConsumer   = "B2C Consumer"
	MarketB2BSaaS       = "B2B SaaS"
	MarketMobile        = "Mobile"
)

// DefaultRequirements is returned when a message carries no list items.
var DefaultRequirements = []string{"User-friendly interface", "Scalable architecture"}

// Name patterns are heuristics and known to over- or under-capture. Product
// names require capitalized words and run against the original message;
// feature names run against the lowercased message.
var (
	productNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i:product|app|tool|platform|system)\s+(?i:called|named|for)\s+([A-Z][A-Za-z0-9]*(?:\s+[A-Z][A-Za-z0-9]*)*)`),
		regexp.MustCompile(`(?i:create|build|design)\s+([A-Z][A-Za-z0-9]*(?:\s+[A-Z][A-Za-z0-9]*)*)`),
	}
	featureNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:feature|functionality|module)\s+(?:called|named|for)\s+([a-z][a-z0-9-]*(?:\s+[a-z][a-z0-9-]*)*)`),
		regexp.MustCompile(`(?:create|build|design)\s+(?:a|an)\s+([a-z][a-z0-9-]*(?:\s+[a-z][a-z0-9-]*)*?)\s+(?:feature|functionality)`),
	}
	listItemPattern = regexp.MustCompile(`^(?:[-*•]|\d+\.)\s*(.*)$`)
)

type substringRule struct {
	needles []string
	value   string
}

var (
	marketRules = []substringRule{
		{needles: []string{"b2b", "enterprise"}, value: MarketB2BEnterprise},
		{needles: []string{"b2c", "consumer"}, value: MarketB2CConsumer},
		{needles: []string{"saas"}, value: MarketB2BSaaS},
		{needles: []string{"mobile"}, value: MarketMobile},
	}
	audienceRules = []substringRule{
		{needles: []string{"product manager"}, value: "Product Managers"},
		{needles: []string{"developer", "engineer"}, value: "Developers"},
		{needles: []string{"designer"}, value: "Designers"},
		{needles: []string{"business", "executive"}, value: "Business Executives"},
	}
	jurisdictionRules = []substringRule{
		{needles: []string{"eu", "europe"}, value: "EU"},
		{needles: []string{"us", "usa", "united states"}, value: "US"},
		{needles: []string{"uk"}, value: "UK"},
	}
)

func ExtractProductName(message string) string {
	if name, ok := firstCapture(productNamePatterns, message); ok {
		return name
	}
	return DefaultProductName
}

func ExtractFeatureName(message string) string {
	if name, ok := firstCapture(featureNamePatterns, strings.ToLower(message)); ok {
		return name
	}
	return DefaultFeatureName
}

func ExtractMarket(message string) string {
	return matchSubstrings(marketRules, message, DefaultMarket)
}

func ExtractTargetAudience(message string) string {
	return matchSubstrings(audienceRules, message, DefaultTargetAudience)
}

func ExtractJurisdiction(message string) string {
	return matchSubstrings(jurisdictionRules, message, DefaultJurisdiction)
}

// ExtractRequirements collects bulleted or numbered list items in document
// order. Messages without list items yield a copy of DefaultRequirements.
func ExtractRequirements(message string) []string {
	var requirements []string
	for _, line := range strings.Split(message, "\n") {
		m := listItemPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if item := strings.TrimSpace(m[1]); item != "" {
			requirements = append(requirements, item)
		}
	}

	if len(requirements) == 0 {
		return append([]string(nil), DefaultRequirements...)
	}
	return requirements
}

func firstCapture(patterns []*regexp.Regexp, s string) (string, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(s); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name, true
			}
		}
	}
	return "", false
}

func matchSubstrings(rules []substringRule, message, fallback string) string {
	lower := strings.ToLower(message)
	for _, r := range rules {
		if containsAny(lower, r.needles...) {
			return r.value
		}
	}
	return fallback
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
