// Package auth validates access tokens issued by the host platform. The
// gateway never mints credentials itself; it only verifies the HS256 tokens
// the platform attaches to API requests and extracts the user identity.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/paygw-stripe/internal/common"
)

// Service verifies platform-issued access tokens.
type Service struct {
	secret    []byte
	validator TokenValidator
	now       func() time.Time
}

// NewService constructs a token verification service.
func NewService(secret string, validator TokenValidator) *Service {
	if validator.Algorithm == "" {
		validator.Algorithm = jwa.HS256
	}
	return &Service{
		secret:    []byte(secret),
		validator: validator,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ParseAccessToken validates an access token and returns the platform identity.
func (s *Service) ParseAccessToken(token string) (common.Identity, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.Identity{}, common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return common.Identity{}, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return common.Identity{}, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return common.Identity{}, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return common.Identity{}, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	userID, err := strconv.ParseInt(parsed.Subject(), 10, 64)
	if err != nil || userID <= 0 {
		return common.Identity{}, common.NewAppError("UNAUTHORIZED", "invalid token subject", http.StatusUnauthorized, err)
	}
	identity := common.Identity{UserID: userID}
	if email, ok := parsed.Get("email"); ok {
		if s, ok := email.(string); ok {
			identity.Email = s
		}
	}
	if name, ok := parsed.Get("name"); ok {
		if s, ok := name.(string); ok {
			identity.Name = s
		}
	}
	return identity, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if algorithm != "" && algorithm != alg {
			return "", errors.New("auth: token contains mixed algorithms")
		}
		algorithm = alg
	}
	return algorithm, nil
}
