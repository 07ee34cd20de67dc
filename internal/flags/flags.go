package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// project config loader. Keeping these as constants helps avoid drift between
// Cobra flag wiring and the code that decides whether an explicit flag wins
// over a ton-dev.config.json value.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Output.Format, flags.FlagFormat, "table", "...")
//	arg := "--" + flags.FlagFormat
const (
	// Targeting
	FlagInclude  = "include"
	FlagExclude  = "exclude"
	FlagMaxFiles = "max-files"

	// Rules
	FlagRules = "rules"

	// Output
	FlagFormat    = "format"
	FlagReport    = "report"
	FlagOut       = "out"
	FlagOutFormat = "out-format"
	FlagNoConsole = "no-console"
	FlagNoColor   = "no-color"

	// Runtime
	FlagConcurrency  = "concurrency"
	FlagTimeout      = "timeout"
	FlagOnUnreadable = "on-unreadable"
	FlagConfig       = "config"
	FlagVerbose      = "verbose"

	// Upload
	FlagUploadRepo = "upload-repo"
	FlagUploadRef  = "upload-ref"
	FlagUploadSHA  = "upload-sha"
)
