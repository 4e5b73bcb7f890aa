// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates flags, CARDC_* environment variables, an optional .env file and
// an optional cardc.yaml into the application's configuration.
package cli
