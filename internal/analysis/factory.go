package analysis

import (
	"fmt"

	"docintake/internal/config"
	"docintake/internal/port"
)

// ProviderFactory is a function that creates a DocumentAnalyzer from config.
type ProviderFactory func(cfg *config.AnalysisConfig) (port.DocumentAnalyzer, error)

// registry of analysis provider factories, populated explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{
	"mock": func(*config.AnalysisConfig) (port.DocumentAnalyzer, error) {
		return NewMockAnalyzer(0), nil
	},
}

// RegisterProvider registers an analysis provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewAnalyzer creates a DocumentAnalyzer for cfg.Provider using the registered factory.
func NewAnalyzer(cfg *config.AnalysisConfig) (port.DocumentAnalyzer, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown analysis provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
