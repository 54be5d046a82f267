package sizing

import "fmt"

// ConsultExpert is the DefaultCatalog answer when the required power exceeds
// its largest entry.
const ConsultExpert = "Panasonic 20kW+ (consult an expert)"

const consultSuffix = "+ (consult an expert)"

// Model is a heat-pump product line entry.
type Model struct {
	CapacityKW float64 `json:"capacity_kw"`
	Name       string  `json:"name"`
	Series     string  `json:"series"`
}

func (m Model) String() string {
	return fmt.Sprintf("%s (%s)", m.Name, m.Series)
}

// Catalog lists models in ascending capacity order.
type Catalog []Model

// DefaultCatalog is the Panasonic Aquarea range offered by the installer.
var DefaultCatalog = Catalog{
	{CapacityKW: 5, Name: "Panasonic 5kW", Series: "Aquarea All in One"},
	{CapacityKW: 7, Name: "Panasonic 7kW", Series: "Aquarea All in One"},
	{CapacityKW: 9, Name: "Panasonic 9kW", Series: "Aquarea All in One"},
	{CapacityKW: 12, Name: "Panasonic 12kW", Series: "Aquarea All in One"},
	{CapacityKW: 16, Name: "Panasonic 16kW", Series: "Aquarea All in One"},
	{CapacityKW: 20, Name: "Panasonic 20kW", Series: "Aquarea High Performance"},
}

// Lookup returns the first model whose capacity is at or above totalKW.
// It never picks a capacity below the required power.
func (c Catalog) Lookup(totalKW float64) (Model, bool) {
	for _, m := range c {
		if m.CapacityKW >= totalKW {
			return m, true
		}
	}
	return Model{}, false
}

// Recommend returns the display name of the matching model or the catalog's
// consult-an-expert sentinel.
func (c Catalog) Recommend(totalKW float64) string {
	if m, ok := c.Lookup(totalKW); ok {
		return m.String()
	}
	return c.ConsultExpert()
}

// ConsultExpert names the largest entry followed by "+ (consult an expert)".
func (c Catalog) ConsultExpert() string {
	if len(c) == 0 {
		return "consult an expert"
	}
	return c[len(c)-1].Name + consultSuffix
}

// RecommendModel maps a total power rating to a model from DefaultCatalog.
func RecommendModel(totalKW float64) string {
	return DefaultCatalog.Recommend(totalKW)
}
