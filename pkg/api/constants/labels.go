package constants

const (
	// ManifestNameLabel records the project name read from the manifest.
	ManifestNameLabel = DefaultNamespace + "manifest.name"

	// ManifestVersionLabel records the project version read from the manifest.
	ManifestVersionLabel = DefaultNamespace + "manifest.version"

	// LockDigestLabel records the digest of the lock file the image was
	// built from. Rebuilding from an unchanged lock yields the same value.
	LockDigestLabel = DefaultNamespace + "lock.digest"

	// BaseImageLabel records the base image the build started from.
	BaseImageLabel = DefaultNamespace + "build.image"

	// VersionLabel records the l2i version that produced the image.
	VersionLabel = DefaultNamespace + "version"
)
