// Package auth verifies bearer tokens and carries the signed-in user on the
// request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/app/system/auditlog"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Token verification failures.
var (
	ErrMissingClaims = errors.New("missing required claims")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidToken  = errors.New("invalid token")
)

// MinSecretLen is the shortest HS256 secret accepted in production.
const MinSecretLen = 32

// SessionUser is what we inject into r.Context() for a verified request.
type SessionUser struct {
	ID       primitive.ObjectID
	Username string
	Role     string // user | admin
}

// IsAdmin reports whether the user is a site administrator.
func (u *SessionUser) IsAdmin() bool { return u != nil && u.Role == models.UserRoleAdmin }

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	return FromContext(r.Context())
}

// FromContext is CurrentUser for code that only holds a context.
func FromContext(ctx context.Context) (*SessionUser, bool) {
	u, ok := ctx.Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithUser returns r carrying u. Tests use it to simulate a signed-in caller.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// UserFetcher loads the account behind a token subject.
type UserFetcher interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Verifier validates HS256 bearer tokens and re-fetches the account so bans
// and suspensions apply on the next request.
type Verifier struct {
	secret []byte
	issuer string
	users  UserFetcher
	audit  *auditlog.Logger
	log    *zap.Logger
	now    func() time.Time
}

// NewVerifier builds a Verifier. issuer may be empty to skip the iss check.
func NewVerifier(secret, issuer string, users UserFetcher, audit *auditlog.Logger, log *zap.Logger) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
		users:  users,
		audit:  audit,
		log:    log,
		now:    time.Now,
	}
}

// Issue signs a token for userID. The service never issues tokens to
// clients; this exists for local tooling and tests.
func (v *Verifier) Issue(userID primitive.ObjectID, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if v.issuer != "" {
		claims.Issuer = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Parse verifies tokenString and returns its subject.
func (v *Verifier) Parse(tokenString string) (primitive.ObjectID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, ErrTokenExpired
		}
		return primitive.NilObjectID, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return primitive.NilObjectID, ErrMissingClaims
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return id, nil
}

// LoadUser injects the user into context when a bearer token is present.
// Requests without a token continue anonymously; a bad token is a 401 and a
// blocked account a 403.
func (v *Verifier) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		id, err := v.Parse(raw)
		if err != nil {
			v.audit.TokenRejected(r.Context(), err.Error())
			apierr.Unauthorized(w, r, "invalid or expired token")
			return
		}

		u, err := v.users.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				v.audit.TokenRejected(r.Context(), "unknown user "+id.Hex())
				apierr.Unauthorized(w, r, "account not found")
				return
			}
			v.log.Error("user lookup failed", zap.String("user_id", id.Hex()), zap.Error(err))
			apierr.Respond(w, r, v.log, err)
			return
		}
		if u.Blocked(v.now()) {
			v.audit.BlockedUser(r.Context(), u.ID, u.Status)
			apierr.Forbidden(w, r, "account is "+u.Status)
			return
		}

		next.ServeHTTP(w, WithUser(r, &SessionUser{
			ID:       u.ID,
			Username: u.Username,
			Role:     u.Role,
		}))
	})
}

// RequireSignedIn rejects anonymous requests with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			apierr.Unauthorized(w, r, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
