package config

// StrategyConfig selects the logical model each agent uses.
type StrategyConfig struct {
	DefaultModel string `mapstructure:"default_model"`
	TestsModel   string `mapstructure:"tests_model"`
	WebsiteModel string `mapstructure:"website_model"`
}
