package detect

// Signature describes how one ad provider shows up in page markup.
// Detection matches Domains against script src URLs and Patterns against
// the raw HTML body, both case-insensitively. Tag is the key used to look
// up the provider's exclusion fragment in the rule store.
type Signature struct {
	Tag      string
	Name     string
	Domains  []string
	Patterns []string
}

// Signatures lists the known ad providers in detection order. The order is
// fixed so repeated scans of the same page return tags in the same order.
var Signatures = []Signature{
	{
		Tag:      "mediavine",
		Name:     "Mediavine",
		Domains:  []string{"scripts.mediavine.com", "ads.mediavine.com"},
		Patterns: []string{"window.mediavinedomain", "__mediavinemachine", "mediavine"},
	},
	{
		Tag:     "adthrive",
		Name:    "AdThrive/Raptive",
		Domains: []string{"adthrive.com", "raptive.com", "raptive.s3", "raptivecdn.com"},
		Patterns: []string{
			"window.adthrive",
			"adthrive.config",
			"window.at",
			"at.siteid",
			"ads.min.js",
			"adthrive.com",
			"raptive",
		},
	},
	{
		Tag:      "ezoic",
		Name:     "Ezoic",
		Domains:  []string{"www.ezojs.com", "ezoic.com", "ezoic.net"},
		Patterns: []string{"ezstandalone", "ez_ad_units", "ezoic"},
	},
	{
		Tag:      "adsense",
		Name:     "Google AdSense",
		Domains:  []string{"pagead2.googlesyndication.com", "googleadservices.com"},
		Patterns: []string{"adsbygoogle.push", "(adsbygoogle", "google_ad_client"},
	},
	{
		Tag:      "ad_manager",
		Name:     "Google Ad Manager",
		Domains:  []string{"securepubads.g.doubleclick.net", "googletagservices.com"},
		Patterns: []string{"googletag.defineslot", "googletag.pubads", "gpt.js"},
	},
	{
		Tag:      "amazon_associates",
		Name:     "Amazon Associates",
		Domains:  []string{"ws-na.amazon-adsystem.com", "amazon-adsystem.com"},
		Patterns: []string{"amzn_assoc_", "amazon-adsystem"},
	},
	{
		Tag:      "monumetric",
		Name:     "Monumetric",
		Domains:  []string{"d2v734f2ybhd6d.cloudfront.net", "monumetric.com"},
		Patterns: []string{"monumetricads", "monumetric"},
	},
	{
		Tag:      "media_net",
		Name:     "Media.net",
		Domains:  []string{"contextual.media.net", "media.net"},
		Patterns: []string{"media_net", "media.net"},
	},
}
