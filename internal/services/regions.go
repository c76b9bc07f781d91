package services

// countryRegions lists the regions we can validate per country. A country
// that is absent here accepts any region text.
var countryRegions = map[string][]string{
	"US": {
		"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
		"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
		"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
		"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
		"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
		"DC",
	},
	"CA": {
		"AB", "BC", "MB", "NB", "NL", "NS", "NT", "NU", "ON", "PE",
		"QC", "SK", "YT",
	},
	"AU": {
		"ACT", "NSW", "NT", "QLD", "SA", "TAS", "VIC", "WA",
	},
}

// validRegion reports whether the submitted region is acceptable for the
// country. Mismatches are rejected, never corrected.
func validRegion(country, region string) bool {
	regions, known := countryRegions[country]
	if !known {
		return true
	}
	for _, r := range regions {
		if r == region {
			return true
		}
	}
	return false
}
