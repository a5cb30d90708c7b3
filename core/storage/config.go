package storage

import "time"

// Config holds configuration for the object store.
type Config struct {
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Region is the location of the buckets (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// SystemBucket holds the deployment's bucket map and the reports.
	SystemBucket string `mapstructure:"system_bucket" default:""`
	// StackName namespaces keys inside the system bucket.
	StackName string `mapstructure:"stack_name" default:""`
}

// BucketsConfigKey returns the key of the bucket map inside the system bucket.
func (c Config) BucketsConfigKey() string {
	return c.StackName + "/workflows/buckets.json"
}

// ReportsPrefix returns the key prefix under which reports are stored.
func (c Config) ReportsPrefix() string {
	return c.StackName + "/reconciliation-reports/"
}

// Timeout returns the connection timeout, defaulting to 30 seconds.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
