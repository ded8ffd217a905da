package config

// EbayConfig holds the Browse API credentials. The adapter is disabled
// when the client id is empty.
type EbayConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`

	// Marketplace code used when the ship-to country has no dedicated
	// marketplace, e.g. EBAY_DE
	DefaultMarketplace string `mapstructure:"default_marketplace"`

	// EPN campaign id; listing URLs are rewritten when set
	AffiliateCampaign string `mapstructure:"affiliate_campaign"`

	BaseURL string `mapstructure:"base_url"`
}

// Enabled reports whether the adapter has credentials.
func (c *EbayConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// BrickOwlConfig holds the BrickOwl API key. The adapter is feature-gated
// per watch and globally disabled when the key is empty.
type BrickOwlConfig struct {
	Key     string `mapstructure:"key"`
	BaseURL string `mapstructure:"base_url"`
}

func (c *BrickOwlConfig) Enabled() bool {
	return c.Key != ""
}

// RebrickConfig holds the Rebrickable enrichment credentials. Enrichment
// is best-effort and skipped entirely without a key.
type RebrickConfig struct {
	Key     string `mapstructure:"key"`
	BaseURL string `mapstructure:"base_url"`
}

func (c *RebrickConfig) Enabled() bool {
	return c.Key != ""
}

// PricingConfig tunes the landed-cost model.
type PricingConfig struct {
	// Seller display names known to list B2B ex-VAT prices; VAT is added
	// back before comparison.
	ExVATSellers []string `mapstructure:"ex_vat_sellers"`
}
