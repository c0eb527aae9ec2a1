package qaboard

import (
	"net/http"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	clk := testclock.NewClock(testNow)
	tokens := newAdminTokens("secret", "admin", time.Hour, clk)

	raw, err := tokens.Issue()
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := tokens.Verify(raw); err != nil {
		t.Fatalf("Verify fresh token: %v", err)
	}

	clk.Advance(time.Hour + time.Second)
	if err := tokens.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify expired token = %v, want ErrInvalidToken", err)
	}
}

func TestAdminTokenRejectsForgery(t *testing.T) {
	clk := testclock.NewClock(testNow)
	tokens := newAdminTokens("secret", "admin", time.Hour, clk)

	tests := []struct {
		name   string
		issuer *adminTokens
	}{
		{"other secret", newAdminTokens("other", "admin", time.Hour, clk)},
		{"other subject", newAdminTokens("secret", "someone", time.Hour, clk)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.issuer.Issue()
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}
			if err := tokens.Verify(raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Verify = %v, want ErrInvalidToken", err)
			}
		})
	}
	for _, raw := range []string{"", "not-a-token"} {
		if err := tokens.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", raw, err)
		}
	}
}

func TestExpiredTokenDropsAdmin(t *testing.T) {
	clk := testclock.NewClock(testNow)
	a, srv := setupTestApp(t, WithClock(clk))
	c := newTestClient(t, srv)
	c.login()

	clk.Advance(a.Config.TokenTTL + time.Minute)
	var info SessionInfo
	c.doJSON(http.MethodGet, "/api/session", nil, http.StatusOK, &info)
	if info.Admin {
		t.Fatal("expired token still grants admin")
	}
}
