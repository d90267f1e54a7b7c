// Package cssutil is a narrow stylesheet rewriter for the community's
// legacy stylesheet: it locates rules by selector and replaces individual
// declaration values, nothing more. It is deliberately not a general CSS
// engine.
package cssutil

import (
	"fmt"
	"strings"

	"github.com/gorilla/css/scanner"
)

// Declaration is one property: value pair inside a rule.
type Declaration struct {
	Property string
	Value    string
}

// Rule is one selector block.
type Rule struct {
	Selector     string
	Declarations []Declaration
}

// Get returns the value of a property, or "" when the rule does not
// declare it.
func (r *Rule) Get(property string) string {
	for _, d := range r.Declarations {
		if d.Property == property {
			return d.Value
		}
	}
	return ""
}

// Set replaces the value of a property, appending the declaration when
// the rule does not declare it yet.
func (r *Rule) Set(property, value string) {
	for i, d := range r.Declarations {
		if d.Property == property {
			r.Declarations[i].Value = value
			return
		}
	}
	r.Declarations = append(r.Declarations, Declaration{Property: property, Value: value})
}

// Parse tokenizes a flat stylesheet into rules. Comments are dropped;
// serialization is normalized, so rewriting an already-rewritten
// stylesheet produces no further changes.
func Parse(css string) ([]Rule, error) {
	s := scanner.New(css)

	var rules []Rule
	var selector []string
	var current *Rule
	var property string
	var value []string

	flushDecl := func() {
		if current != nil && property != "" {
			current.Declarations = append(current.Declarations, Declaration{
				Property: property,
				Value:    strings.TrimSpace(strings.Join(value, "")),
			})
		}
		property = ""
		value = nil
	}

	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			if current != nil {
				return nil, fmt.Errorf("unterminated rule %q", current.Selector)
			}
			return rules, nil
		case scanner.TokenError:
			return nil, fmt.Errorf("scanning stylesheet at %d:%d: %s", tok.Line, tok.Column, tok.Value)
		case scanner.TokenComment:
			continue
		}

		if current == nil {
			// selector position
			if tok.Type == scanner.TokenChar && tok.Value == "{" {
				current = &Rule{Selector: normalizeSelector(selector)}
				selector = nil
				continue
			}
			selector = append(selector, tok.Value)
			continue
		}

		// inside a rule block
		if tok.Type == scanner.TokenChar {
			switch tok.Value {
			case "}":
				flushDecl()
				rules = append(rules, *current)
				current = nil
				continue
			case ";":
				flushDecl()
				continue
			case ":":
				if property == "" && len(value) > 0 {
					property = strings.TrimSpace(strings.Join(value, ""))
					value = nil
					continue
				}
			}
		}
		value = append(value, tok.Value)
	}
}

// Serialize renders rules back to stylesheet text in a normalized form.
func Serialize(rules []Rule) string {
	var b strings.Builder
	for i, rule := range rules {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(rule.Selector)
		b.WriteString(" {\n")
		for _, d := range rule.Declarations {
			fmt.Fprintf(&b, "    %s: %s;\n", d.Property, d.Value)
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// FindRule returns a pointer to the first rule with the selector, or nil.
func FindRule(rules []Rule, selector string) *Rule {
	for i := range rules {
		if rules[i].Selector == selector {
			return &rules[i]
		}
	}
	return nil
}

// FindRules returns pointers to every rule whose selector is in the set.
func FindRules(rules []Rule, selectors ...string) []*Rule {
	want := make(map[string]bool, len(selectors))
	for _, sel := range selectors {
		want[sel] = true
	}
	var found []*Rule
	for i := range rules {
		if want[rules[i].Selector] {
			found = append(found, &rules[i])
		}
	}
	return found
}

func normalizeSelector(parts []string) string {
	joined := strings.Join(parts, "")
	return strings.Join(strings.Fields(joined), " ")
}
