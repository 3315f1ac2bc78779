package catalog

var defaultServices = []Service{
	{
		ID:          "classic-manicure",
		Name:        "Classic Manicure",
		Category:    "manicure",
		Description: "Shaping, cuticle care, hand massage and regular polish.",
		PricingTiers: []PricingTier{
			{ID: "classic-manicure-standard", Name: "Standard", Price: 35, Duration: 30},
			{ID: "classic-manicure-deluxe", Name: "Deluxe", Price: 50, Duration: 45},
		},
	},
	{
		ID:          "gel-manicure",
		Name:        "Gel Manicure",
		Category:    "manicure",
		Description: "Long-wear gel colour cured under LED, lasts up to three weeks.",
		PricingTiers: []PricingTier{
			{ID: "gel-manicure-standard", Name: "Standard", Price: 50, Duration: 60},
			{ID: "gel-manicure-french", Name: "French Finish", Price: 60, Duration: 75},
		},
	},
	{
		ID:          "spa-pedicure",
		Name:        "Spa Pedicure",
		Category:    "pedicure",
		Description: "Warm soak, exfoliation, callus care, massage and polish.",
		PricingTiers: []PricingTier{
			{ID: "spa-pedicure-standard", Name: "Standard", Price: 55, Duration: 50},
			{ID: "spa-pedicure-signature", Name: "Signature", Price: 75, Duration: 70},
		},
	},
	{
		ID:          "acrylic-full-set",
		Name:        "Acrylic Full Set",
		Category:    "enhancements",
		Description: "Sculpted acrylic extensions with shape of choice.",
		PricingTiers: []PricingTier{
			{ID: "acrylic-full-set-short", Name: "Short", Price: 65, Duration: 75},
			{ID: "acrylic-full-set-long", Name: "Long", Price: 85, Duration: 90},
		},
	},
	{
		ID:          "nail-art",
		Name:        "Nail Art",
		Category:    "art",
		Description: "Hand-painted designs, chrome, foils and gems.",
		PricingTiers: []PricingTier{
			{ID: "nail-art-accent", Name: "Accent Nails", Price: 15, Duration: 15},
			{ID: "nail-art-full", Name: "Full Set Design", Price: 40, Duration: 45},
		},
	},
	{
		ID:          "gel-removal",
		Name:        "Gel Removal",
		Category:    "care",
		Description: "Gentle soak-off with nail conditioning.",
		PricingTiers: []PricingTier{
			{ID: "gel-removal-standard", Name: "Standard", Price: 15, Duration: 20},
		},
	},
}

var defaultTeam = []TeamMember{
	{
		ID:          "tech-mia",
		Name:        "Mia Chen",
		Role:        "Lead Nail Artist",
		Specialties: []string{"Nail Art", "Gel Extensions"},
		Featured:    true,
	},
	{
		ID:          "tech-sofia",
		Name:        "Sofia Alvarez",
		Role:        "Senior Technician",
		Specialties: []string{"Acrylics", "Spa Pedicures"},
		Featured:    true,
	},
	{
		ID:          "tech-hana",
		Name:        "Hana Kim",
		Role:        "Nail Technician",
		Specialties: []string{"Gel Manicures", "Minimalist Art"},
		Featured:    true,
	},
	{
		ID:          "staff-jordan",
		Name:        "Jordan Blake",
		Role:        "Front Desk Manager",
		Specialties: []string{"Client Care"},
		Featured:    false,
	},
}
