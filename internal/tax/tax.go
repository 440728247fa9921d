package tax

import (
	"fmt"
	"math"
)

// Result is a local sales tax estimate.
type Result struct {
	Tax  float64 `json:"tax"`
	Rate float64 `json:"rate"`
}

// rateTable maps "{country}-{state}" to a sales tax rate. Granularity is
// US-only; everything else falls through to the OTHER sentinel.
var rateTable = map[string]float64{
	"US-AL": 0.04,
	"US-AK": 0.0,
	"US-AZ": 0.056,
	"US-AR": 0.065,
	"US-CA": 0.0725,
	"US-CO": 0.029,
	"US-CT": 0.0635,
	"US-DE": 0.0,
	"US-FL": 0.06,
	"US-GA": 0.04,
	"US-HI": 0.04,
	"US-ID": 0.06,
	"US-IL": 0.0625,
	"US-IN": 0.07,
	"US-IA": 0.06,
	"US-KS": 0.065,
	"US-KY": 0.06,
	"US-LA": 0.0445,
	"US-ME": 0.055,
	"US-MD": 0.06,
	"US-MA": 0.0625,
	"US-MI": 0.06,
	"US-MN": 0.06875,
	"US-MS": 0.07,
	"US-MO": 0.04225,
	"US-MT": 0.0,
	"US-NE": 0.055,
	"US-NV": 0.0685,
	"US-NH": 0.0,
	"US-NJ": 0.06625,
	"US-NM": 0.05125,
	"US-NY": 0.04,
	"US-NC": 0.0475,
	"US-ND": 0.05,
	"US-OH": 0.0575,
	"US-OK": 0.045,
	"US-OR": 0.0,
	"US-PA": 0.06,
	"US-RI": 0.07,
	"US-SC": 0.06,
	"US-SD": 0.045,
	"US-TN": 0.07,
	"US-TX": 0.0625,
	"US-UT": 0.061,
	"US-VT": 0.06,
	"US-VA": 0.053,
	"US-WA": 0.065,
	"US-WV": 0.06,
	"US-WI": 0.05,
	"US-WY": 0.04,
	"US-DC": 0.06,
	"OTHER": 0.0,
}

// Round2 rounds a dollar amount to cents, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Estimate computes a local sales tax estimate from the static rate table.
// It is pure and shared by the display path and the server-side fallback so
// the two can never drift. digitalExempt reflects the configured
// digital-goods exemption; when set, digital formats are taxed at zero
// regardless of destination.
func Estimate(subtotal float64, country, state string, isDigital, digitalExempt bool) Result {
	if isDigital && digitalExempt {
		return Result{Tax: 0, Rate: 0}
	}
	rate, ok := rateTable[fmt.Sprintf("%s-%s", country, state)]
	if !ok {
		rate = rateTable["OTHER"]
	}
	return Result{Tax: Round2(subtotal * rate), Rate: rate}
}

// KnownRate reports the table rate for a destination, and whether the
// destination is a state the table knows to levy a nonzero sales tax.
func KnownRate(country, state string) (float64, bool) {
	rate, ok := rateTable[fmt.Sprintf("%s-%s", country, state)]
	return rate, ok && rate > 0
}
