package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Method identifies which calculation produced the heating power.
type Method string

const (
	MethodDirectPower         Method = "direct_power"
	MethodAreaEnergyFormula   Method = "area_energy_formula"
	MethodAnnualDemandFormula Method = "annual_demand_formula"
	MethodAreaEstimate        Method = "area_estimate"
	MethodInsufficientData    Method = "insufficient_data"
)

const (
	// DHWPowerKW is the fixed domestic hot water allowance added to heating power.
	DHWPowerKW = 0.8

	// SpecificPowerWPerM2 is the assumed specific heating load for the area-only estimate.
	SpecificPowerWPerM2 = 100

	zordonDivisor    = 1800
	zordonMultiplier = 2
	heatingHours     = 2000
)

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

var (
	dhwPower     = decimal.NewFromFloat(DHWPowerKW)
	safetyFactor = decimal.RequireFromString("1.5")
)

// Result is the outcome of a sizing run. Power fields are nil when Method is
// MethodInsufficientData.
type Result struct {
	Method             Method   `json:"method_used"`
	HeatingPower       *float64 `json:"heating_power"`
	DHWPower           *float64 `json:"domestic_hot_water_power"`
	TotalPower         *float64 `json:"total_power"`
	AnnualDemand       *float64 `json:"annual_demand,omitempty"`
	Formula            string   `json:"formula"`
	FormulaDescription string   `json:"formula_description"`
	Confidence         string   `json:"confidence,omitempty"`
	RecommendedModel   *string  `json:"recommended_model"`
}

// Compute sizes the heat pump from the extracted fields using DefaultCatalog.
func Compute(f Fields) Result {
	return DefaultCatalog.Compute(f)
}

// Compute picks the first applicable method in priority order:
// direct power, area × energy index, annual demand, area estimate.
// Missing data yields MethodInsufficientData, never an error.
func (c Catalog) Compute(f Fields) Result {
	var (
		res     Result
		heating decimal.Decimal
	)

	direct, hasDirect := positive(f.DirectPower)
	area, hasArea := positive(f.UsableArea)
	eu, hasEU := positive(f.EnergyUseIndex)
	annual, hasAnnual := positive(f.AnnualHeatDemand)

	switch {
	case hasDirect:
		heating = decimal.NewFromFloat(direct)
		res = Result{
			Method:             MethodDirectPower,
			Formula:            "Heating power taken directly from the project",
			FormulaDescription: fmt.Sprintf("Heating power from project: %s kW", heating.String()),
			Confidence:         ConfidenceHigh,
		}

	case hasArea && hasEU:
		a, e := decimal.NewFromFloat(area), decimal.NewFromFloat(eu)
		demand := a.Mul(e)
		heating = demand.Div(decimal.NewFromInt(zordonDivisor)).Mul(decimal.NewFromInt(zordonMultiplier)).Round(1)
		res = Result{
			Method:       MethodAreaEnergyFormula,
			AnnualDemand: floatPtr(demand),
			Formula:      "(Usable area × EU) / 1800 × 2",
			FormulaDescription: fmt.Sprintf("(%s × %s) / %d × %d = %s kW",
				a.String(), e.String(), zordonDivisor, zordonMultiplier, heating.StringFixed(1)),
			Confidence: ConfidenceMedium,
		}

	case hasAnnual:
		d := decimal.NewFromFloat(annual)
		heating = d.Div(decimal.NewFromInt(heatingHours)).Mul(safetyFactor).Round(1)
		res = Result{
			Method:  MethodAnnualDemandFormula,
			Formula: "Annual heat demand / 2000 h × 1.5",
			FormulaDescription: fmt.Sprintf("%s / %d × %s = %s kW",
				d.String(), heatingHours, safetyFactor.String(), heating.StringFixed(1)),
			Confidence: ConfidenceMedium,
		}

	case hasArea:
		a := decimal.NewFromFloat(area)
		heating = a.Mul(decimal.NewFromInt(SpecificPowerWPerM2)).Div(decimal.NewFromInt(1000)).Round(1)
		res = Result{
			Method:  MethodAreaEstimate,
			Formula: fmt.Sprintf("Usable area × %d W/m²", SpecificPowerWPerM2),
			FormulaDescription: fmt.Sprintf("%s × %d W/m² = %s kW",
				a.String(), SpecificPowerWPerM2, heating.StringFixed(1)),
			Confidence: ConfidenceLow,
		}

	default:
		return Result{
			Method:             MethodInsufficientData,
			Formula:            "",
			FormulaDescription: "Insufficient data in the document; enter heating power, annual demand or usable area manually",
		}
	}

	total := heating.Add(dhwPower).Round(1)
	res.HeatingPower = floatPtr(heating)
	res.DHWPower = floatPtr(dhwPower)
	res.TotalPower = floatPtr(total)
	model := c.Recommend(total.InexactFloat64())
	res.RecommendedModel = &model
	return res
}

func floatPtr(d decimal.Decimal) *float64 {
	v := d.InexactFloat64()
	return &v
}
