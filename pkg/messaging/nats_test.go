package messaging

import "testing"

func TestSubjectFor(t *testing.T) {
	cases := []struct{ prefix, symbol, want string }{
		{"signals", "BTCUSDT", "signals.BTCUSDT"},
		{"signals", "ethusdt", "signals.ETHUSDT"},
		{"radar.signals", "ADAUSDT", "radar.signals.ADAUSDT"},
	}
	for _, tc := range cases {
		if got := SubjectFor(tc.prefix, tc.symbol); got != tc.want {
			t.Errorf("SubjectFor(%q, %q) = %q, want %q", tc.prefix, tc.symbol, got, tc.want)
		}
	}
}
