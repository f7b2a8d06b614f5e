package storage

// Config holds configuration for the optional backup mirror storage.
type Config struct {
	// Enabled turns the backup mirror on. When false no client is created
	// and roster script backups stay local only.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is the URL of the S3-compatible storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the bucket that receives roster script backups.
	Bucket string `mapstructure:"bucket" default:"roster-backups"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
