package doe

// Version constants for generated artifacts and manifests.
const (
	// ManifestVersion is the batch manifest schema version.
	ManifestVersion = "1"

	// GeneratorVersion is the doerun generator version.
	GeneratorVersion = "0.1.0"
)
