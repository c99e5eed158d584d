package domain

// GeoResult is the enrichment returned by a geolocation provider.
// The zero value means "nothing known" and is what every failed lookup yields.
type GeoResult struct {
	Country          string   `json:"country"`
	CountryCode      string   `json:"countryCode"`
	Region           string   `json:"region"`
	RegionName       string   `json:"regionName"`
	City             string   `json:"city"`
	Zip              string   `json:"zip"`
	Latitude         *float64 `json:"lat"`
	Longitude        *float64 `json:"lon"`
	Timezone         string   `json:"timezone"`
	ISP              string   `json:"isp"`
	Org              string   `json:"org"`
	AutonomousSystem string   `json:"as"`
}

// IsEmpty reports whether the lookup produced no data.
func (g GeoResult) IsEmpty() bool {
	return g == GeoResult{}
}
