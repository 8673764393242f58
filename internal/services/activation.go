package services

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/soochol/sharemenu/internal/provider"
	"github.com/soochol/sharemenu/internal/share"
)

// ErrActivationRejected is returned when a share does not satisfy the
// extension's activation rule.
var ErrActivationRejected = errors.New("share rejected by activation rule")

// ActivationRule is a boolean expression over the shape of a share, e.g.
// "images <= 10 && urls <= 1". A nil rule accepts every share.
type ActivationRule struct {
	source  string
	program *vm.Program
}

// CompileActivationRule compiles src. An empty src yields a nil rule.
func CompileActivationRule(src string) (*ActivationRule, error) {
	if src == "" {
		return nil, nil
	}
	program, err := expr.Compile(src, expr.Env(activationEnv(nil)))
	if err != nil {
		return nil, fmt.Errorf("compile activation rule %q: %w", src, err)
	}
	return &ActivationRule{source: src, program: program}, nil
}

func (r *ActivationRule) String() string {
	if r == nil {
		return "TRUEPREDICATE"
	}
	return r.source
}

// Allows evaluates the rule against targets.
func (r *ActivationRule) Allows(targets []share.Target) (bool, error) {
	if r == nil {
		return true, nil
	}
	result, err := expr.Run(r.program, activationEnv(targets))
	if err != nil {
		return false, fmt.Errorf("evaluate activation rule %q: %w", r.source, err)
	}
	return isTruthy(result), nil
}

// activationEnv counts targets, attachments and attachments per capability.
func activationEnv(targets []share.Target) map[string]any {
	env := map[string]any{
		"targets":        len(targets),
		"attachments":    0,
		"titles":         0,
		"texts":          0,
		"images":         0,
		"urls":           0,
		"file_urls":      0,
		"data":           0,
		"property_lists": 0,
	}
	count := func(k string) { env[k] = env[k].(int) + 1 }

	for _, t := range targets {
		if !t.Title.Empty() {
			count("titles")
		}
		for _, p := range t.Attachments {
			count("attachments")
			caps := provider.Classify(p)
			if caps.HasText() {
				count("texts")
			}
			if caps.HasImage() {
				count("images")
			}
			if caps.HasURL() {
				count("urls")
			}
			if caps.HasFileURL() {
				count("file_urls")
			}
			if caps.HasData() {
				count("data")
			}
			if caps.HasPropertyList() {
				count("property_lists")
			}
		}
	}
	return env
}

// isTruthy converts a value to a boolean.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
