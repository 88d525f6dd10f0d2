package assets

// Built-in asset names.
const (
	DefaultThemeName    = "light"
	DefaultTemplateName = "mindmap"
)

// AssetLoader defines the contract for loading themes and templates.
type AssetLoader interface {
	// LoadTheme loads a CSS theme by name (without .css extension).
	// Returns ErrThemeNotFound if the theme doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTheme(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTemplate(name string) (string, error)

	// Themes lists the theme names this loader can serve, sorted.
	Themes() []string
}
