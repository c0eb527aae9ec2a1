package qaboard

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
	"github.com/juju/errors"
)

const tokenIssuer = "qaboard"

// ErrInvalidToken is returned for a capability token that is malformed,
// forged, expired or issued to someone else.
const ErrInvalidToken = errors.ConstError("invalid admin token")

// adminTokens issues and verifies the signed capability token that marks
// a session as admin. The token is kept in the session cookie and checked
// on every request, so a stale cookie loses admin rights once it expires.
type adminTokens struct {
	secret  []byte
	subject string
	ttl     time.Duration
	clock   clock.Clock
}

func newAdminTokens(secret, subject string, ttl time.Duration, clk clock.Clock) *adminTokens {
	return &adminTokens{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		clock:   clk,
	}
}

// Issue returns a signed HS256 token valid for the configured lifetime.
func (t *adminTokens) Issue() (string, error) {
	now := t.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   t.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errors.Annotate(err, "sign admin token")
	}
	return signed, nil
}

// Verify checks the signature, expiry, issuer and subject of raw.
func (t *adminTokens) Verify(raw string) error {
	if raw == "" {
		return ErrInvalidToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(t.subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	_, err := parser.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return errors.WithType(err, ErrInvalidToken)
	}
	return nil
}
