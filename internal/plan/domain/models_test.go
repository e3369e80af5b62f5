package domain

import "testing"

func TestTierForCode(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"BASIC", TierBasic},
		{"basic-yearly", TierBasic},
		{"PRO", TierProfessional},
		{"pro-monthly", TierProfessional},
		{"PROFESSIONAL", TierProfessional},
		{"ENTERPRISE", TierEnterprise},
		{"enter-custom", TierEnterprise},
		{"", TierBasic},
		{"UNKNOWN", TierBasic},
	}
	for _, tc := range cases {
		if got := TierForCode(tc.code); got != tc.want {
			t.Fatalf("TierForCode(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}
