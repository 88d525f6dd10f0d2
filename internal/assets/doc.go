// Package assets provides the theme stylesheets and HTML templates used to
// build and export mind-map documents.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in themes)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the exporter and the mind-map builder.
// It tries the custom directory first and falls back to the embedded assets
// when the asset is not found there, so a single theme can be overridden
// while the others keep their defaults.
//
// # Directory Structure
//
//	{basePath}/
//	├── themes/
//	│   └── {name}.css       # injected into the page before export
//	└── templates/
//	    └── {name}.html      # html/template source for generated documents
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
