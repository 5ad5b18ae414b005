// Package jwt signs and validates the RS256 access tokens issued by the
// Ludoteca API.
//
// Tokens carry the registered claims (iss, sub, iat, exp) plus the user id,
// email and role used by the authorization middleware:
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    Issuer:         "ludoteca",
//	    ExpirationMins: 15,
//	})
//
//	token, err := svc.Sign(jwt.Claims{UserID: user.ID, Email: user.Email, Role: "coordinator"})
//	claims, err := svc.Validate(token)
//
// Validation errors are normalized to ErrTokenExpired, ErrTokenNotYetValid,
// ErrInvalidSignature or ErrInvalidToken.
package jwt
