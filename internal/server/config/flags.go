package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/waitlist/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-r string   gRPC health bind address (e.g., ":50051")
//	-s string   storage backend: memory, postgres, sqlite
//	-d string   database DSN
//	-e string   environment: development, production
//	-u string   public base URL used in confirmation links
//	-t int      request timeout, seconds
//	-b string   S3 bucket for exports
//
// Only these flags are looked at; os.Args is filtered through
// flagx.FilterArgs so -c and CLI specific flags do not collide.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-s", "-d", "-e", "-u", "-t", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the HTTP API")
	fs.StringVar(&config.GRPCAddr, "r", config.GRPCAddr, "address and port to run the gRPC health endpoint")
	fs.StringVar(&config.StorageBackend, "s", config.StorageBackend, "storage backend (memory, postgres, sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment (development, production)")
	fs.StringVar(&config.PublicBaseURL, "u", config.PublicBaseURL, "public base URL")
	requestTimeout := fs.Int("t", 0, "request timeout (in seconds)")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for exports")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// -t only overrides when given; earlier layers may hold sub-second values
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
		}
	})
	return nil
}
