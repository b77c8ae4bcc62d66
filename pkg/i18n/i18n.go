// Package i18n localizes report, CLI and template text.
//
// A Context carries the four locale knobs (report, content, patterns,
// template) and a Catalog resolves dotted message keys ("cli.created")
// against per-locale YAML files with the built-in catalogs as fallback.
// Unsupported locales degrade to English rather than erroring.
package i18n

// Supported locales. PatternsUnion is only meaningful for the patterns
// locale and selects the combined en+zh pattern set.
const (
	LocaleEnglish = "en"
	LocaleChinese = "zh"
	PatternsUnion = "union"

	DefaultLocale = LocaleEnglish
)

// Supported reports whether locale names a catalog we ship.
func Supported(locale string) bool {
	return locale == LocaleEnglish || locale == LocaleChinese
}

// Context selects the locale for each localizable surface. The zero value
// is not usable directly; call Normalize or start from DefaultContext.
type Context struct {
	// ReportLocale is the language of rendered reports and CLI messages.
	ReportLocale string `yaml:"report_locale" json:"report_locale" mapstructure:"report_locale"`
	// ContentLocale is the expected language of document prose.
	ContentLocale string `yaml:"content_locale" json:"content_locale" mapstructure:"content_locale"`
	// PatternsLocale picks the forbidden-pattern set (en, zh or union).
	PatternsLocale string `yaml:"patterns_locale" json:"patterns_locale" mapstructure:"patterns_locale"`
	// TemplateLocale is the language of scaffolded documents.
	TemplateLocale string `yaml:"template_locale" json:"template_locale" mapstructure:"template_locale"`
}

// DefaultContext returns English reports and content with the union
// pattern set.
func DefaultContext() Context {
	return Context{
		ReportLocale:   DefaultLocale,
		ContentLocale:  DefaultLocale,
		PatternsLocale: PatternsUnion,
		TemplateLocale: DefaultLocale,
	}
}

// Normalize replaces unsupported locales with their defaults. Empty and
// unknown values never surface as errors; the locale knobs are advisory.
func (c *Context) Normalize() {
	if !Supported(c.ReportLocale) {
		c.ReportLocale = DefaultLocale
	}
	if !Supported(c.ContentLocale) {
		c.ContentLocale = DefaultLocale
	}
	if !Supported(c.PatternsLocale) && c.PatternsLocale != PatternsUnion {
		c.PatternsLocale = PatternsUnion
	}
	if !Supported(c.TemplateLocale) {
		c.TemplateLocale = DefaultLocale
	}
}
