package domain

// Domain is one of the nine thematic groups an indicator belongs to.
type Domain string

const (
	DomainConflict      Domain = "conflict"
	DomainDisaster      Domain = "disaster"
	DomainFoodSecurity  Domain = "food_security"
	DomainStunting      Domain = "stunting"
	DomainMarket        Domain = "market"
	DomainPrecipitation Domain = "precipitation"
	DomainWealth        Domain = "wealth"
	DomainRoadDensity   Domain = "road_density"
	DomainHealthAccess  Domain = "health_access"
)

// Domains returns all nine domains in presentation order.
func Domains() []Domain {
	return []Domain{
		DomainConflict,
		DomainDisaster,
		DomainFoodSecurity,
		DomainStunting,
		DomainMarket,
		DomainPrecipitation,
		DomainWealth,
		DomainRoadDensity,
		DomainHealthAccess,
	}
}

// Indicator describes one numeric variable attached to every commune.
// Code is the attribute column name in the source dataset. Reversed marks
// indicators where a higher raw value means lower vulnerability; their
// z-scores are negated before aggregation.
type Indicator struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Domain   Domain `json:"domain"`
	Reversed bool   `json:"reversed"`
}

// Catalog returns the production indicator set in source-dataset column
// order. The domain grouping and reversed flags follow the reference
// analysis: road density and wealth are the two reversed indicators.
func Catalog() []Indicator {
	return []Indicator{
		{Code: "CON_DFA1C", Label: "Dahalo Flag Actor 1 (Count)", Domain: DomainConflict},
		{Code: "CON_DFA2C", Label: "Dahalo Flag Actor 2 (Count)", Domain: DomainConflict},
		{Code: "CON_NDFAC1", Label: "Non-Dahalo Flag Actor 1 (Sum)", Domain: DomainConflict},
		{Code: "CON_NDFAC2", Label: "Non-Dahalo Flag Actor 2 (Sum)", Domain: DomainConflict},
		{Code: "ST_SUM", Label: "Stunting (Sum)", Domain: DomainStunting},
		{Code: "RD_DENSUNREV", Label: "Road Density", Domain: DomainRoadDensity, Reversed: true},
		{Code: "IPC_AVC", Label: "IPC Average", Domain: DomainFoodSecurity},
		{Code: "MK_DIST", Label: "Distance To Market", Domain: DomainMarket},
		{Code: "MK_VOLA", Label: "Market Price Volatility", Domain: DomainMarket},
		{Code: "MK_ANOM", Label: "Anomaly Rate", Domain: DomainMarket},
		{Code: "DIS_AFF", Label: "Disaster Affected", Domain: DomainDisaster},
		{Code: "DIS_CROPDMG", Label: "Crop Damage (Ha)", Domain: DomainDisaster},
		{Code: "USAID_VAC", Label: "USAID VAC", Domain: DomainFoodSecurity},
		{Code: "USAID_SD", Label: "USAID SD", Domain: DomainDisaster},
		{Code: "USAID_IPC", Label: "USAID IPC", Domain: DomainFoodSecurity},
		{Code: "USAID_STUNTING", Label: "USAID Stunting", Domain: DomainStunting},
		{Code: "USAIDWEALTH", Label: "USAID Wealth", Domain: DomainWealth, Reversed: true},
		{Code: "USAID_PIF", Label: "USAID PIF", Domain: DomainFoodSecurity},
		{Code: "USAID_PRECIP", Label: "USAID Precipitation", Domain: DomainPrecipitation},
		{Code: "USAID_WALKING", Label: "USAID Walking Time", Domain: DomainHealthAccess},
	}
}

// IndicatorByCode looks up a catalog indicator by its dataset column name.
func IndicatorByCode(code string) (Indicator, bool) {
	for _, ind := range Catalog() {
		if ind.Code == code {
			return ind, true
		}
	}
	return Indicator{}, false
}
