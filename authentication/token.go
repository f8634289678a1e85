package authentication

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned by Verify when the token's expiry is past.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is returned by Verify for any other verification
	// failure: bad signature, malformed encoding, missing subject.
	ErrTokenInvalid = errors.New("invalid token")
)

// A TokenService issues and verifies stateless, signed, time-limited identity
// tokens. There is no server-side session table and no revocation list; a
// token is valid until its embedded expiry, full stop.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret []byte) *TokenService {
	return &TokenService{
		secret: secret,
		now:    time.Now,
	}
}

// Issue produces a signed token carrying the username and an absolute expiry
// of now plus ttl.
func (ts *TokenService) Issue(username string, ttl time.Duration) (string, error) {
	now := ts.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secret)
}

// Verify checks the token's signature and expiry and returns the username it
// identifies. It fails with ErrTokenExpired past the embedded expiry and
// ErrTokenInvalid for anything else.
func (ts *TokenService) Verify(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return ts.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
