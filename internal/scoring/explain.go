package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCost renders whole costs with thousands separators ("12,500") and
// falls back to full precision for fractional or very large values.
func FormatCost(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return FormatNumber(v)
}

// FormatNumber renders v with the shortest representation that round-trips.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// explanation renders every number that feeds r.Score. The weight line is
// only written for weighted engines.
func explanation(r RankedUpgrade, weighted bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s) level %d -> %d\n", r.Name, r.UpgradeID, r.CurrentLevel, r.NextLevel)
	fmt.Fprintf(&b, "  Cost: %s\n", FormatCost(r.Cost))
	unit := ""
	if r.EffectUnit != "" {
		unit = " " + r.EffectUnit
	}
	fmt.Fprintf(&b, "  Effect: %s -> %s%s\n", FormatNumber(r.CurrentEffect), FormatNumber(r.NextEffect), unit)
	fmt.Fprintf(&b, "  Marginal benefit: %s - %s = %s\n",
		FormatNumber(r.NextEffect), FormatNumber(r.CurrentEffect), FormatNumber(r.MarginalBenefit))

	if weighted {
		source := "profile"
		if r.WeightDefaulted {
			source = "default"
		}
		fmt.Fprintf(&b, "  Weight: %s = %s (%s)\n", r.Category, FormatNumber(r.Weight), source)
		fmt.Fprintf(&b, "  Score: %s / %s x %s = %s\n",
			FormatNumber(r.MarginalBenefit), FormatNumber(r.Cost), FormatNumber(r.Weight), FormatNumber(r.Score))
	} else {
		fmt.Fprintf(&b, "  Score: %s / %s = %s\n",
			FormatNumber(r.MarginalBenefit), FormatNumber(r.Cost), FormatNumber(r.Score))
	}
	if unrounded := r.RawScore * r.Weight; unrounded != r.Score {
		fmt.Fprintf(&b, "  Unrounded: %s\n", FormatNumber(unrounded))
	}

	status := "affordable"
	if !r.Affordable {
		status = "not affordable yet"
	}
	fmt.Fprintf(&b, "  Status: %s\n", status)
	fmt.Fprintf(&b, "  Method: %s %s", r.Method, r.MethodVersion)
	return b.String()
}
