package classify

import (
	"path"
	"strings"

	"github.com/cloudkeep/confsweep/internal/models"
)

// SecurityHubPrincipal is the service principal Security Hub stamps into the
// CreatedBy attribute of the Config rules it manages.
const SecurityHubPrincipal = "securityhub.amazonaws.com"

// DefaultPreservePatterns protect the Security Hub managed rule set and
// conformance-pack members by name. Both shapes show up in real accounts
// running the Security Hub integration.
var DefaultPreservePatterns = []string{
	"securityhub-*",
	"*-conformance-pack-*",
}

// Classifier decides whether a scanned Config rule is protected from
// deletion. Classification is a pure function of the rule's scanned
// attributes: no network calls, same input always yields the same output.
type Classifier struct {
	preservePatterns []string
}

// NewClassifier returns a Classifier using the default preserve patterns
// plus any extra patterns supplied by the caller.
func NewClassifier(extraPatterns ...string) Classifier {
	patterns := make([]string, 0, len(DefaultPreservePatterns)+len(extraPatterns))
	patterns = append(patterns, DefaultPreservePatterns...)
	patterns = append(patterns, extraPatterns...)
	return Classifier{preservePatterns: patterns}
}

// Classify returns the rule's classification and, for preserved rules, the
// reason it is protected.
func (c Classifier) Classify(rule models.ConfigRuleInfo) (models.Classification, string) {
	if ownedBySecurityHub(rule) {
		return models.ClassificationPreserve, "owned by the Security Hub integration"
	}
	if pattern, ok := c.matchesPreservePattern(rule); ok {
		return models.ClassificationPreserve, "matches preserve pattern " + pattern
	}
	if serviceLinked(rule) {
		return models.ClassificationPreserve, "service-linked rule created by " + rule.CreatedBy
	}
	return models.ClassificationCleanable, ""
}

func ownedBySecurityHub(rule models.ConfigRuleInfo) bool {
	if rule.CreatedBy == SecurityHubPrincipal {
		return true
	}
	return strings.Contains(strings.ToLower(rule.SourceIdentifier), "securityhub")
}

func (c Classifier) matchesPreservePattern(rule models.ConfigRuleInfo) (string, bool) {
	for _, pattern := range c.preservePatterns {
		if globMatch(pattern, rule.Name) || globMatch(pattern, rule.ARN) {
			return pattern, true
		}
	}
	return "", false
}

// serviceLinked treats any rule stamped with a service principal as managed
// by that service and therefore off-limits.
func serviceLinked(rule models.ConfigRuleInfo) bool {
	return rule.ServiceLinked ||
		strings.HasSuffix(rule.CreatedBy, ".amazonaws.com")
}

func globMatch(pattern, name string) bool {
	if name == "" {
		return false
	}
	ok, err := path.Match(pattern, name)
	// A bad pattern never matches; the CLI validates patterns up front.
	return err == nil && ok
}

// ValidPattern reports whether pattern is a well-formed glob.
func ValidPattern(pattern string) bool {
	_, err := path.Match(pattern, "probe")
	return err == nil
}
