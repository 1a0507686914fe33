package log

import "testing"

func TestEnumStrings(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{Direction(99).String(), "UNKNOWN"},
		{CategoryAttOp.String(), "ATT_OP"},
		{CategoryState.String(), "STATE"},
		{CategoryLock.String(), "LOCK"},
		{CategoryError.String(), "ERROR"},
		{ProcedureNone.String(), "NONE"},
		{ProcedureDiscover.String(), "DISCOVER"},
		{ProcedureDiscoverSets.String(), "DISCOVER_SETS"},
		{ProcedureLockState.String(), "LOCK_STATE"},
		{ProcedureLock.String(), "LOCK"},
		{ProcedureRelease.String(), "RELEASE"},
		{AttOpRead.String(), "READ"},
		{AttOpWrite.String(), "WRITE"},
		{AttOpSubscribe.String(), "SUBSCRIBE"},
		{AttOpDiscoverServices.String(), "DISCOVER_SERVICES"},
		{AttOpDiscoverCharacteristics.String(), "DISCOVER_CHARACTERISTICS"},
		{AttOpNotification.String(), "NOTIFICATION"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}
