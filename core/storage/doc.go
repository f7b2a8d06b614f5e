// Package storage provides the S3-compatible client used by the optional
// roster script backup mirror. The manager never serves content from object
// storage; the mirror only receives copies of local backups so a wiped
// machine can recover its roster configuration.
package storage
