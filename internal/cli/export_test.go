package cli

// Export internal functions for testing.

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// IsValidConfigKey exports isValidConfigKey for testing.
var IsValidConfigKey = isValidConfigKey

// ValidConfigKeys exports validConfigKeys for testing.
var ValidConfigKeys = validConfigKeys

// ParseSeriesArg exports parseSeriesArg for testing.
var ParseSeriesArg = parseSeriesArg

// DeriveOutputPath exports deriveOutputPath for testing.
var DeriveOutputPath = deriveOutputPath

// SupportedFormatsList exports supportedFormatsList for testing.
var SupportedFormatsList = supportedFormatsList

// RunAlign exports runAlign for testing.
var RunAlign = runAlign

// RunClip exports runClip for testing.
var RunClip = runClip

// RunQuantize exports runQuantize for testing.
var RunQuantize = runQuantize

// PrepareOptions exports prepareOptions for testing.
type PrepareOptions = prepareOptions
