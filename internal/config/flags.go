package config

import (
	"github.com/spf13/pflag"
)

// ApplyFlags overrides settings with command-line flags. Only flags that
// were given change the configuration, so environment values survive.
func (c *Config) ApplyFlags(name string, args []string) error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	port := fs.StringP("port", "p", c.Port, "HTTP listen port")
	configFile := fs.String("config-file", c.ConfigFile, "warehouse layout JSON file")
	frontendDir := fs.String("frontend-dir", c.FrontendDir, "serve the front-end from this directory instead of the bundled one")
	maxUpload := fs.Int64("max-upload-mb", c.MaxUploadMB, "maximum upload request size in MiB")
	dbDriver := fs.String("db-driver", c.Database.Driver, "database driver: sqlite, postgres or embedded")
	sqlitePath := fs.String("sqlite-path", c.Database.SQLitePath, "SQLite database file")
	logSQL := fs.Bool("log-sql", c.Database.LogSQL, "log every SQL statement")
	blobDriver := fs.String("blob-driver", c.Blob.Driver, "image storage: fs or s3")
	uploadDir := fs.String("upload-dir", c.Blob.UploadDir, "root directory for uploaded images")
	s3Bucket := fs.String("s3-bucket", c.Blob.S3Bucket, "S3 bucket for uploaded images")
	logLevel := fs.String("log-level", c.Log.Level, "debug, info, warn or error")
	logFormat := fs.String("log-format", c.Log.Format, "json or text")

	if err := fs.Parse(args); err != nil {
		return err
	}

	c.Port = *port
	c.ConfigFile = *configFile
	c.FrontendDir = *frontendDir
	c.MaxUploadMB = *maxUpload
	c.Database.Driver = *dbDriver
	c.Database.SQLitePath = *sqlitePath
	c.Database.LogSQL = *logSQL
	c.Blob.Driver = *blobDriver
	c.Blob.UploadDir = *uploadDir
	c.Blob.S3Bucket = *s3Bucket
	c.Log.Level = *logLevel
	c.Log.Format = *logFormat

	return c.Validate()
}
