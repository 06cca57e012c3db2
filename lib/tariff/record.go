// Package tariff holds the provider-independent pieces of tariff
// extraction: the record shape, the free-text value parser, the
// category classifier and the output aggregator.
package tariff

// Record is one extracted mobile tariff. Allowance fields keep the
// digits-as-text representation of the source: an empty string means
// the card never disclosed the value, which is different from "0".
type Record struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	GB       string `json:"gb"`
	Minutes  string `json:"minutes"`
	SMS      string `json:"sms"`
	// Price is the monthly price in whole lira. 0 means unknown.
	Price int `json:"price"`
	// NoCommitmentPrice is the monthly-only price when the details
	// overlay disclosed one, digits as text.
	NoCommitmentPrice string `json:"no_commitment_price"`
	Provider          string `json:"provider"`
}

// MaxNameLength bounds Record.Name so a mis-scoped card container
// can't capture a wall of text as the tariff name.
const MaxNameLength = 60
