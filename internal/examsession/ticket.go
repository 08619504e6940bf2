package examsession

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"drivecert/pkg/domain"
	dErrors "drivecert/pkg/domain-errors"
)

const ticketIssuer = "drivecert"

// TicketIssuer mints and verifies the short-lived bearer tickets a candidate
// presents on answer and submit calls after a successful login.
type TicketIssuer struct {
	key []byte
}

func NewTicketIssuer(key []byte) (*TicketIssuer, error) {
	if len(key) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ticket signing key is required")
	}
	return &TicketIssuer{key: key}, nil
}

// Issue signs an HS256 ticket bound to the session. The ticket expires with
// the exam deadline so a stale token cannot extend the attempt.
func (t *TicketIssuer) Issue(sessionID domain.SessionID, now, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    ticketIssuer,
		Subject:   sessionID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign session ticket")
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the bound session ID.
func (t *TicketIssuer) Verify(token string) (domain.SessionID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.Newf(dErrors.CodeUnauthorized, "unexpected signing method %q", tok.Method.Alg())
		}
		return t.key, nil
	}, jwt.WithIssuer(ticketIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return domain.SessionID{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid session ticket")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return domain.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session ticket")
	}
	return domain.ParseSessionID(claims.Subject)
}
