package log

// Config is the confuration struct for the log package.
//
// Can be deserialized from YAML.
type Config struct {
	// Level is the log level you want to set your binary to.
	Level Level `yaml:"level"`

	// JSON switches the global logger from the console encoding to the full
	// json format.
	JSON bool `yaml:"json"`
}

// InitFromConfig initializes the log package using the given Config.
func InitFromConfig(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = InfoLevel
	}
	if cfg.JSON {
		InitLoggerJSON(cfg.Level)
		return
	}
	InitLogger(cfg.Level)
}
