package openapiir

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Canonical patterns implied by contentEncoding.
const (
	base64Pattern    = `^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$`
	base64URLPattern = `^(?:[A-Za-z0-9_-]{4})*(?:[A-Za-z0-9_-]{2}(?:==)?|[A-Za-z0-9_-]{3}=?)?$`
)

// ExtractRules maps a resolved schema node to its validation rules. The
// required flag is the owning object's required-array membership, denormalized
// onto this node by the caller. Read-only schemas yield no rules.
//
// The extraction order is stable and consumers depend on it: required, const,
// minLength, maxLength, pattern, email, encoding-implied pattern, minimum
// bounds, maximum bounds, multipleOf, uniqueItems, minItems, maxItems,
// minProperties, maxProperties, contains, not.
func ExtractRules(schema *openapi3.Schema, required bool) []Rule {
	if schema == nil || schema.ReadOnly {
		return nil
	}

	var rules []Rule

	if required {
		rules = append(rules, Rule{Kind: RuleRequired})
	}

	if c, ok := schema.Extensions["const"]; ok {
		rules = append(rules, Rule{Kind: RuleConst, Const: c})
	}

	if schema.MinLength > 0 {
		l := schema.MinLength
		rules = append(rules, Rule{Kind: RuleMinLength, Length: &l})
	}
	if schema.MaxLength != nil {
		l := *schema.MaxLength
		rules = append(rules, Rule{Kind: RuleMaxLength, Length: &l})
	}

	if schema.Pattern != "" {
		// Patterns arrive with their backslashes escaped once by the JSON
		// layer; undo that exactly once.
		pattern := strings.ReplaceAll(schema.Pattern, `\\`, `\`)
		rules = append(rules, Rule{Kind: RulePattern, Pattern: pattern})
	}

	if schema.Format == "email" {
		rules = append(rules, Rule{Kind: RuleEmail})
	}

	if encoding, ok := schema.Extensions["contentEncoding"].(string); ok {
		switch encoding {
		case "base64":
			rules = append(rules, Rule{Kind: RulePattern, Pattern: base64Pattern})
		case "base64url":
			rules = append(rules, Rule{Kind: RulePattern, Pattern: base64URLPattern})
		}
	}

	// Minimum side: a numeric exclusiveMinimum wins; a boolean
	// exclusiveMinimum promotes minimum to an exclusive bound; otherwise
	// minimum is inclusive.
	if bound, ok := extensionNumber(schema.Extensions["exclusiveMinimum"]); ok {
		rules = append(rules, Rule{Kind: RuleExclusiveMin, Bound: &bound})
	} else if schema.Min != nil {
		bound := *schema.Min
		if schema.ExclusiveMin {
			rules = append(rules, Rule{Kind: RuleExclusiveMin, Bound: &bound})
		} else {
			rules = append(rules, Rule{Kind: RuleMin, Bound: &bound})
		}
	}
	if bound, ok := extensionNumber(schema.Extensions["exclusiveMaximum"]); ok {
		rules = append(rules, Rule{Kind: RuleExclusiveMax, Bound: &bound})
	} else if schema.Max != nil {
		bound := *schema.Max
		if schema.ExclusiveMax {
			rules = append(rules, Rule{Kind: RuleExclusiveMax, Bound: &bound})
		} else {
			rules = append(rules, Rule{Kind: RuleMax, Bound: &bound})
		}
	}

	if schema.MultipleOf != nil {
		bound := *schema.MultipleOf
		rules = append(rules, Rule{Kind: RuleMultipleOf, Bound: &bound})
	}

	if schema.UniqueItems {
		rules = append(rules, Rule{Kind: RuleUniqueItems})
	}
	if schema.MinItems > 0 {
		l := schema.MinItems
		rules = append(rules, Rule{Kind: RuleMinItems, Length: &l})
	}
	if schema.MaxItems != nil {
		l := *schema.MaxItems
		rules = append(rules, Rule{Kind: RuleMaxItems, Length: &l})
	}

	if schema.MinProps > 0 {
		l := schema.MinProps
		rules = append(rules, Rule{Kind: RuleMinProperties, Length: &l})
	}
	if schema.MaxProps != nil {
		l := *schema.MaxProps
		rules = append(rules, Rule{Kind: RuleMaxProperties, Length: &l})
	}

	if _, ok := schema.Extensions["contains"]; ok {
		min := uint64(1)
		if v, ok := extensionUint(schema.Extensions["minContains"]); ok {
			min = v
		}
		rule := Rule{Kind: RuleContains, ContainsMin: &min}
		if v, ok := extensionUint(schema.Extensions["maxContains"]); ok {
			max := v
			rule.ContainsMax = &max
		}
		rules = append(rules, rule)
	}

	if schema.Not != nil && schema.Not.Value != nil {
		inner := ExtractRules(schema.Not.Value, false)
		if len(inner) > 0 {
			rules = append(rules, Rule{Kind: RuleNot, Not: inner})
		}
	}

	return rules
}

// extensionNumber coerces a hydrated extension value to float64. Booleans
// (3.0-style exclusive flags) are not numbers and report false.
func extensionNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func extensionUint(v interface{}) (uint64, bool) {
	n, ok := extensionNumber(v)
	if !ok || n < 0 {
		return 0, false
	}
	return uint64(n), true
}
