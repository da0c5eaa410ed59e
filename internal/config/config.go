package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`

	Shipping   Shipping   `envPrefix:"SHIPPING_"`
	Rewards    Rewards    `envPrefix:"REWARD_"`
	Commission Commission `envPrefix:"COMMISSION_"`
	Tiers      Tiers      `envPrefix:"TIER_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Shipping struct {
	// Orders delivered inside LocalRegion ship at the local flat rate,
	// everywhere else at the remote flat rate.
	LocalRegion string `env:"LOCAL_REGION" envDefault:"Dhaka"`
	LocalRate   int64  `env:"LOCAL_RATE" envDefault:"60"`
	RemoteRate  int64  `env:"REMOTE_RATE" envDefault:"120"`
}

type Rewards struct {
	// Sale points: floor(line subtotal / SaleAmountStep) * SalePointsPerStep.
	SaleAmountStep    int64 `env:"SALE_AMOUNT_STEP" envDefault:"100"`
	SalePointsPerStep int64 `env:"SALE_POINTS_PER_STEP" envDefault:"10"`

	FiveStarReviewPoints int64 `env:"FIVE_STAR_REVIEW_POINTS" envDefault:"20"`
	FastShippingPoints   int64 `env:"FAST_SHIPPING_POINTS" envDefault:"5"`
	FastShippingHours    int64 `env:"FAST_SHIPPING_HOURS" envDefault:"24"`

	FirstSaleBonus    int64 `env:"FIRST_SALE_BONUS" envDefault:"50"`
	Milestone10Bonus  int64 `env:"MILESTONE_10_BONUS" envDefault:"100"`
	Milestone50Bonus  int64 `env:"MILESTONE_50_BONUS" envDefault:"500"`
	Milestone100Bonus int64 `env:"MILESTONE_100_BONUS" envDefault:"1000"`
}

// Commission rates are carried as strings and parsed by the tier resolver, so
// a malformed value falls back to the hard default with a warning instead of
// failing startup.
type Commission struct {
	Bronze   string `env:"BRONZE"`
	Silver   string `env:"SILVER"`
	Gold     string `env:"GOLD"`
	Platinum string `env:"PLATINUM"`
}

type Tiers struct {
	SilverThreshold   int64 `env:"SILVER_THRESHOLD" envDefault:"500"`
	GoldThreshold     int64 `env:"GOLD_THRESHOLD" envDefault:"1500"`
	PlatinumThreshold int64 `env:"PLATINUM_THRESHOLD" envDefault:"5000"`
}
