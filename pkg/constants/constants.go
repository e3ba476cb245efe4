// Package constants holds small fixed values shared across omni's packages.
package constants

// CLIName is the prefix used in user-facing output and Use: strings.
const CLIName = "omni"

// ReservedEnvPrefix marks environment variables that carry state between an
// omni invocation and the shell hook that sourced it (OMNI_*).
const ReservedEnvPrefix = "OMNI_"

// ShellOwnedVarsEnv is the shadow variable recording which env keys the
// dynamic environment currently owns, so teardown can remove exactly those.
const ShellOwnedVarsEnv = "OMNI_SHELL_OWNED_VARS"

// ShellOwnedPathEnv is the shadow variable recording which PATH segments
// omni itself prepended, so a diff only ever removes those entries from
// PATH rather than the scalar variable as a whole (spec.md §4.3's
// entry-level add/remove semantics for PATH specifically).
const ShellOwnedPathEnv = "OMNI_SHELL_OWNED_PATH"

// LoadedFeaturesEnv records which per-workdir features have been loaded into
// the parent shell, to avoid redundant re-exports.
const LoadedFeaturesEnv = "OMNI_LOADED_FEATURES"

// SubcommandEnv is exported to dispatched children so they can identify the
// resolved command name that invoked them.
const SubcommandEnv = "OMNI_SUBCOMMAND"

// CwdEnv is exported to dispatched children with the working directory omni
// was invoked from, which may differ from the command's source directory.
const CwdEnv = "OMNI_CWD"

// IdentitySentinelFile names the per-workdir file used to persist a
// synthesized UUID identity for working directories outside of Git.
const IdentitySentinelFile = ".omni-id"

// DefaultTTLDays is the default retention window before an orphaned tool
// install becomes eligible for the periodic sweep.
const DefaultTTLDays = 30
