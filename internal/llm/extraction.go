package llm

import "heatpump-backend/internal/sizing"

// Data quality grades reported by the model.
const (
	QualityGood         = "good"
	QualityPartial      = "partial"
	QualityInsufficient = "insufficient"
)

// MethodManualInput is the recommended calculation method when the document
// does not carry enough data.
const MethodManualInput = "manual_input"

// Extraction is the structured result of analysing a project document.
type Extraction struct {
	FoundData                    sizing.Fields `json:"found_data"`
	AnalysisSummary              string        `json:"analysis_summary"`
	DataQuality                  string        `json:"data_quality"`
	RecommendedCalculationMethod string        `json:"recommended_calculation_method"`
	ConfidenceLevel              float64       `json:"confidence_level"`
	Notes                        string        `json:"notes"`
}

// Fallback is substituted when extraction fails for any reason. Every field
// is absent so the engine reports insufficient data.
func Fallback(summary string) Extraction {
	if summary == "" {
		summary = "Automatic analysis of the document was not possible"
	}
	return Extraction{
		AnalysisSummary:              summary,
		DataQuality:                  QualityInsufficient,
		RecommendedCalculationMethod: MethodManualInput,
		ConfidenceLevel:              0,
		Notes:                        "Enter the building data manually: usable area and energy use index, annual heat demand or heating power.",
	}
}
