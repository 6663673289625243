package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GoogleCertsURL serves the x509 certificates that sign Firebase ID tokens.
const GoogleCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	firebaseLeeway       = 5 * time.Second
)

// idTokenClaims adds the Firebase sign-in time to the shared claims.
type idTokenClaims struct {
	Claims
	AuthTime *jwt.NumericDate `json:"auth_time,omitempty"`
}

// FirebaseVerifier verifies Firebase Authentication ID tokens.
type FirebaseVerifier struct {
	projectID string
	keys      *KeyCache
}

// NewFirebaseVerifier creates a verifier for projectID. A nil client uses a
// client with a short timeout; an empty certsURL uses GoogleCertsURL.
func NewFirebaseVerifier(projectID, certsURL string, client *http.Client) *FirebaseVerifier {
	if certsURL == "" {
		certsURL = GoogleCertsURL
	}
	return &FirebaseVerifier{
		projectID: projectID,
		keys:      NewKeyCache(certsURL, client),
	}
}

// Verify checks signature, audience, issuer, expiry and sign-in time of an
// ID token.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims := &idTokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("missing kid header")
		}
		return v.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(firebaseIssuerPrefix+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(firebaseLeeway),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.AuthTime == nil || claims.AuthTime.After(time.Now().Add(firebaseLeeway)) {
		return nil, fmt.Errorf("%w: missing or future auth_time", ErrInvalidToken)
	}
	if len(claims.Subject) > 128 {
		return nil, fmt.Errorf("%w: subject too long", ErrInvalidToken)
	}
	return identityFromClaims(&claims.Claims)
}
