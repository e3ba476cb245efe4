package constants

import "testing"

func TestReservedEnvPrefix(t *testing.T) {
	if ReservedEnvPrefix != "OMNI_" {
		t.Errorf("ReservedEnvPrefix = %q, want %q", ReservedEnvPrefix, "OMNI_")
	}
}

func TestShadowVarsPrefixed(t *testing.T) {
	for _, v := range []string{ShellOwnedVarsEnv, LoadedFeaturesEnv, SubcommandEnv, CwdEnv} {
		if len(v) <= len(ReservedEnvPrefix) || v[:len(ReservedEnvPrefix)] != ReservedEnvPrefix {
			t.Errorf("%q does not carry the reserved prefix %q", v, ReservedEnvPrefix)
		}
	}
}
