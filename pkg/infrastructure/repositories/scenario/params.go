package scenario

// Per-type activity parameters, decoded from an activity's params node

type feedParams struct {
	FeedStore       string  `yaml:"feed_store" validate:"required"`
	KgPerHeadPerDay float64 `yaml:"kg_per_head_per_day" validate:"gt=0"`
	GainPerKgFed    float64 `yaml:"gain_per_kg_fed" validate:"gte=0"`
	DaysPerMonth    float64 `yaml:"days_per_month" validate:"gte=0"`
}

type buyParams struct {
	Herd           string  `yaml:"herd" validate:"required"`
	Breed          string  `yaml:"breed"`
	Sex            string  `yaml:"sex" validate:"omitempty,oneof=female male"`
	AgeMonths      int     `yaml:"age_months" validate:"gte=0"`
	Weight         float64 `yaml:"weight" validate:"gt=0"`
	Location       string  `yaml:"location"`
	TargetHead     int     `yaml:"target_head" validate:"gte=0"`
	Account        string  `yaml:"account" validate:"required"`
	PricePerHead   string  `yaml:"price_per_head" validate:"omitempty,numeric"`
	AERelationship string  `yaml:"ae_relationship"`
}

type sellParams struct {
	Account        string `yaml:"account" validate:"required"`
	PricePerHead   string `yaml:"price_per_head" validate:"omitempty,numeric"`
	PricePerKg     string `yaml:"price_per_kg" validate:"omitempty,numeric"`
	AERelationship string `yaml:"ae_relationship"`
}

type moveParams struct {
	ToLocation  string `yaml:"to_location" validate:"required"`
	MarkForSale bool   `yaml:"mark_for_sale"`
}

type manureParams struct {
	Store               string  `yaml:"store" validate:"required"`
	KgPerHeadPerDay     float64 `yaml:"kg_per_head_per_day" validate:"gt=0"`
	ProportionCollected float64 `yaml:"proportion_collected" validate:"gte=0,lte=1"`
	DaysPerMonth        float64 `yaml:"days_per_month" validate:"gte=0"`
	Limiter             string  `yaml:"limiter"`
}

type cutAndCarryParams struct {
	Pasture             string  `yaml:"pasture" validate:"required"`
	ProportionHarvested float64 `yaml:"proportion_harvested" validate:"gt=0,lte=1"`
	FeedStore           string  `yaml:"feed_store" validate:"required"`
	LabourPool          string  `yaml:"labour_pool"`
	LabourDaysPerHa     float64 `yaml:"labour_days_per_ha" validate:"gte=0"`
	Limiter             string  `yaml:"limiter"`
}

type expenseParams struct {
	Account  string `yaml:"account" validate:"required"`
	Amount   string `yaml:"amount" validate:"required,numeric"`
	Category string `yaml:"category"`
}

type interestParams struct {
	Accounts []string `yaml:"accounts" validate:"required,min=1"`
}

type emissionParams struct {
	Store      string  `yaml:"store" validate:"required"`
	KgPerHead  float64 `yaml:"kg_per_head" validate:"gte=0"`
	KgPerKgFed float64 `yaml:"kg_per_kg_fed" validate:"gte=0"`
	FixedKg    float64 `yaml:"fixed_kg" validate:"gte=0"`
	// Feed names a RuminantFeed configured earlier
	Feed string `yaml:"feed"`
}
