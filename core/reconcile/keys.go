package reconcile

import (
	"fmt"
	"strings"
)

// CollectionIDSeparator joins a collection's name and version.
// Names containing it are rejected because the composite key would be ambiguous.
const CollectionIDSeparator = "___"

// FileKey returns the comparison key of an object: bucket + "/" + key.
// Object keys are compared byte for byte; no trailing-slash trimming or
// percent decoding is applied on either side.
func FileKey(bucket, key string) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("empty bucket")
	}
	if key == "" {
		return "", fmt.Errorf("empty object key in bucket %s", bucket)
	}
	if strings.Contains(bucket, "/") {
		return "", fmt.Errorf("bucket name %q contains '/'", bucket)
	}
	return bucket + "/" + key, nil
}

// S3URI renders a file comparison key as an s3:// URI.
func S3URI(fileKey string) string {
	return "s3://" + fileKey
}

// CollectionID builds the composite collection key name___version.
func CollectionID(name, version string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty collection name")
	}
	if version == "" {
		return "", fmt.Errorf("empty version for collection %s", name)
	}
	if strings.Contains(name, CollectionIDSeparator) {
		return "", fmt.Errorf("collection name %q contains separator %q", name, CollectionIDSeparator)
	}
	return name + CollectionIDSeparator + version, nil
}
