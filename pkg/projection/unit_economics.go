package projection

import (
	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/iwvelando/business-forecast/pkg/mathutil"
)

// UnitEconomics are the per-account acquisition and value ratios.
type UnitEconomics struct {
	BlendedCAC    float64 `json:"blendedCac"`
	LTV           float64 `json:"ltv"`
	LTVCACRatio   float64 `json:"ltvCacRatio"`
	PaybackPeriod float64 `json:"paybackPeriod"`
}

// ComputeUnitEconomics blends paid and organic CAC by the organic mix and
// derives LTV from churn. Zero churn falls back to a fixed 24 month
// lifetime; zero CAC yields a zero ratio and payback.
func ComputeUnitEconomics(churnPct, arpu, paidCAC, organicCAC, organicMixPct float64) UnitEconomics {
	mix := organicMixPct / constants.PercentageMultiplier
	ue := UnitEconomics{
		BlendedCAC: paidCAC*(1-mix) + organicCAC*mix,
	}

	if churnPct > 0 {
		ue.LTV = arpu / (churnPct / constants.PercentageMultiplier)
	} else {
		ue.LTV = arpu * constants.LTVFallbackMonths
	}

	if ue.BlendedCAC != 0 {
		ue.LTVCACRatio = mathutil.SafeDivide(ue.LTV, ue.BlendedCAC, 0)
		ue.PaybackPeriod = mathutil.SafeDivide(ue.BlendedCAC, arpu, 0)
	}
	return ue
}
