package catalog

import (
	"fmt"
	"math"
	"strings"
)

// deltaTolerance is how far a stored effect delta may drift from the
// cumulative difference before it is flagged.
const deltaTolerance = 1e-6

// Finding is a single validation check that did not pass.
type Finding struct {
	UpgradeID string `json:"upgrade_id,omitempty"`
	Level     int    `json:"level,omitempty"`
	Check     string `json:"check"`
	Message   string `json:"message"`
	Fix       string `json:"fix,omitempty"`
}

func (f Finding) String() string {
	var b strings.Builder
	if f.UpgradeID != "" {
		b.WriteString(f.UpgradeID)
		if f.Level > 0 {
			fmt.Fprintf(&b, " level %d", f.Level)
		}
		b.WriteString(": ")
	}
	b.WriteString(f.Message)
	return b.String()
}

// ValidationResult collects errors (the catalog must be rejected) and
// warnings (the catalog is usable but suspicious).
type ValidationResult struct {
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// OK reports whether no errors were found.
func (r *ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Summary renders the findings for terminal output.
func (r *ValidationResult) Summary() string {
	var lines []string
	if len(r.Errors) > 0 {
		lines = append(lines, fmt.Sprintf("ERRORS (%d):", len(r.Errors)))
		for _, f := range r.Errors {
			lines = append(lines, "  - "+f.String())
			if f.Fix != "" {
				lines = append(lines, "    Fix: "+f.Fix)
			}
		}
	}
	if len(r.Warnings) > 0 {
		lines = append(lines, fmt.Sprintf("WARNINGS (%d):", len(r.Warnings)))
		for _, f := range r.Warnings {
			lines = append(lines, "  - "+f.String())
		}
	}
	if r.OK() && len(r.Warnings) == 0 {
		lines = append(lines, "All checks passed.")
	}
	return strings.Join(lines, "\n")
}

func (r *ValidationResult) addError(id string, level int, check, msg, fix string) {
	r.Errors = append(r.Errors, Finding{UpgradeID: id, Level: level, Check: check, Message: msg, Fix: fix})
}

func (r *ValidationResult) addWarning(id string, level int, check, msg string) {
	r.Warnings = append(r.Warnings, Finding{UpgradeID: id, Level: level, Check: check, Message: msg})
}

// Validate runs the business rules New does not enforce. Cost monotonicity is
// a hard rule; effect monotonicity and delta consistency are only warnings
// because some upgrades plateau or carry rounded deltas.
func Validate(c *Catalog) *ValidationResult {
	result := &ValidationResult{}

	if c.Len() == 0 {
		result.addError("", 0, "not_empty", "catalog has no upgrades", "Load a catalog that defines at least one upgrade")
		return result
	}

	names := make(map[string]string)
	orders := make(map[string]map[int]string)

	for _, u := range c.upgrades {
		if other, dup := names[u.Name]; dup {
			result.addWarning(u.ID, 0, "unique_name", fmt.Sprintf("display name %q also used by %s", u.Name, other))
		} else {
			names[u.Name] = u.ID
		}

		if orders[u.Category] == nil {
			orders[u.Category] = make(map[int]string)
		}
		if other, dup := orders[u.Category][u.DisplayOrder]; dup {
			result.addWarning(u.ID, 0, "unique_display_order",
				fmt.Sprintf("display_order %d in %s also used by %s", u.DisplayOrder, u.Category, other))
		} else {
			orders[u.Category][u.DisplayOrder] = u.ID
		}

		validateLevels(u, result)
	}
	return result
}

func validateLevels(u Upgrade, result *ValidationResult) {
	for i, lv := range u.Levels {
		if !isFinite(lv.Cost) || !isFinite(lv.CumulativeEffect) || !isFinite(lv.EffectDelta) {
			result.addError(u.ID, lv.Level, "finite", "cost, cumulative_effect and effect_delta must be finite numbers", "")
			continue
		}
		if lv.Cost <= 0 {
			result.addError(u.ID, lv.Level, "positive_cost",
				fmt.Sprintf("cost must be positive, got %v", lv.Cost),
				"Re-extract the cost for this level; a zero cost cannot be scored")
		}

		prevEffect := u.BaseValue()
		if i > 0 {
			prev := u.Levels[i-1]
			prevEffect = prev.CumulativeEffect
			if lv.Cost <= prev.Cost {
				result.addError(u.ID, lv.Level, "cost_increasing",
					fmt.Sprintf("cost not increasing (%v -> %v)", prev.Cost, lv.Cost),
					"Costs must strictly increase with level; check for swapped or duplicated rows")
			}
			if lv.CumulativeEffect < prev.CumulativeEffect {
				result.addWarning(u.ID, lv.Level, "effect_non_decreasing",
					fmt.Sprintf("cumulative_effect decreased (%v -> %v)", prev.CumulativeEffect, lv.CumulativeEffect))
			}
		}

		expected := lv.CumulativeEffect - prevEffect
		if math.Abs(lv.EffectDelta-expected) > deltaTolerance {
			result.addWarning(u.ID, lv.Level, "delta_consistent",
				fmt.Sprintf("effect_delta %v != expected %.6f", lv.EffectDelta, expected))
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
