package patterns

import (
	"fmt"
	"os"
	"strings"

	"github.com/knoxsec/knox/internal/types"
	"gopkg.in/yaml.v3"
)

// RuleFile is the on-disk format for custom patterns.
//
//	patterns:
//	  - name: internal_token
//	    regex: 'itk_[a-z0-9]{32}'
//	    severity: high
//	    category: secrets
//	    description: Internal service token
//	    keywords: [itk_]
type RuleFile struct {
	Patterns []types.Pattern `yaml:"patterns"`
}

// LoadRules reads and validates a rule file. The regex text is not compiled
// here; an uncompilable pattern is reported by the matcher and yields no
// matches.
func LoadRules(path string) ([]types.Pattern, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(b)
}

// ParseRules decodes rule file content.
func ParseRules(b []byte) ([]types.Pattern, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	seen := map[string]bool{}
	out := make([]types.Pattern, 0, len(rf.Patterns))
	for i, p := range rf.Patterns {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i+1)
		}
		if p.Pattern == "" {
			return nil, fmt.Errorf("rule %q: regex is required", p.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("rule %q: duplicate name", p.Name)
		}
		seen[p.Name] = true
		sev, ok := types.ParseSeverity(string(p.Severity))
		if !ok {
			return nil, fmt.Errorf("rule %q: unknown severity %q", p.Name, p.Severity)
		}
		p.Severity = sev
		if p.Category == "" {
			p.Category = "custom"
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadAll returns the defaults followed by the patterns of each rule file in
// order.
func LoadAll(ruleFiles []string) ([]types.Pattern, error) {
	out := Defaults()
	for _, f := range ruleFiles {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		ps, err := LoadRules(f)
		if err != nil {
			return nil, fmt.Errorf("load rules %s: %w", f, err)
		}
		out = append(out, ps...)
	}
	return out, nil
}
