package model

// Tier is a subscription level bundling a credit cap, a media duration
// ceiling, and feature flags.
type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// Feature is a tier-gated capability.
type Feature string

const (
	FeaturePostToX   Feature = "postToX"
	FeatureAnalytics Feature = "analytics"
)

// Features holds the per-user feature flags derived from the tier bundle.
type Features struct {
	PostToX   bool `json:"postToX"`
	Analytics bool `json:"analytics"`
}

// Enabled reports whether the named feature is on. Unknown features are off.
func (f Features) Enabled(feature Feature) bool {
	switch feature {
	case FeaturePostToX:
		return f.PostToX
	case FeatureAnalytics:
		return f.Analytics
	default:
		return false
	}
}

// TierBundle is the static limit/feature set applied when a user enters a tier.
type TierBundle struct {
	MaxCredits         int
	MaxDurationSeconds int
	Features           Features
}

// TierBundles maps each tier to its limits. Checkout events apply these
// wholesale; creditsUsed and resetDate are never part of a bundle.
var TierBundles = map[Tier]TierBundle{
	TierFree: {
		MaxCredits:         2,
		MaxDurationSeconds: 1800,
		Features:           Features{},
	},
	TierPro: {
		MaxCredits:         30,
		MaxDurationSeconds: 3600,
		Features:           Features{PostToX: true},
	},
	TierBusiness: {
		MaxCredits:         100,
		MaxDurationSeconds: 3600,
		Features:           Features{PostToX: true, Analytics: true},
	},
}

// BundleFor returns the bundle for a tier, defaulting to free for unknown tiers.
func BundleFor(tier Tier) TierBundle {
	if b, ok := TierBundles[tier]; ok {
		return b
	}
	return TierBundles[TierFree]
}

// ProductTiers maps the payment provider's product ids to target tiers.
// Unknown product ids are ignored by the billing service.
var ProductTiers = map[string]Tier{
	"prod_pro":      TierPro,
	"prod_business": TierBusiness,
}

// RequiredTiers is the minimum tier at which each feature becomes available,
// used to build upgrade guidance on feature-gate rejections.
var RequiredTiers = map[Feature]Tier{
	FeaturePostToX:   TierPro,
	FeatureAnalytics: TierBusiness,
}
