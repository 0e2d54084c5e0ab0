package thegraph

import (
	"fmt"
	"strings"
	"time"

	"swapsignal/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the bearer token says about itself. The signature is not checked:
// the token is only passed through to the provider.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// InspectToken decodes the claims of a JWT bearer token without verifying it.
func InspectToken(token string) (TokenInfo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return TokenInfo{}, fmt.Errorf("token is empty")
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("token is not a JWT: %w", err)
	}
	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// WarnOnTokenProblems logs at startup when the market data token is missing, opaque or expired.
func WarnOnTokenProblems(token string, now time.Time) {
	if strings.TrimSpace(token) == "" {
		logger.Warnf("market data token is not configured, requests will likely be rejected")
		return
	}
	info, err := InspectToken(token)
	if err != nil {
		logger.Warnf("market data token: %v", err)
		return
	}
	switch {
	case info.ExpiresAt.IsZero():
		logger.Infof("market data token has no expiry (sub=%s)", info.Subject)
	case !info.ExpiresAt.After(now):
		logger.Warnf("market data token expired at %s", info.ExpiresAt.UTC().Format(time.RFC3339))
	default:
		logger.Infof("market data token valid until %s", info.ExpiresAt.UTC().Format(time.RFC3339))
	}
}
