package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hostel/internal/access"
	"hostel/internal/model"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	AccessExp    time.Time `json:"expiresAt"`
	RefreshExp   time.Time `json:"refreshExpiresAt"`
}

// Claims represents JWT payload. The user id travels as the registered
// subject.
type Claims struct {
	Type           string     `json:"typ"`
	Role           model.Role `json:"role"`
	Name           string     `json:"name,omitempty"`
	Email          string     `json:"email,omitempty"`
	StudentProfile string     `json:"studentProfile,omitempty"`
	jwt.RegisteredClaims
}

// Caller rebuilds the request identity from the claims.
func (c Claims) Caller() access.Caller {
	return access.Caller{
		UserID:         c.Subject,
		Name:           c.Name,
		Email:          c.Email,
		Role:           c.Role,
		StudentProfile: c.StudentProfile,
	}
}

// Tokens signs and verifies HS256 tokens for one issuer.
type Tokens struct {
	Issuer     string
	Key        []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	now func() time.Time
}

func NewTokens(issuer, key string, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{Issuer: issuer, Key: []byte(key), AccessTTL: accessTTL, RefreshTTL: refreshTTL, now: time.Now}
}

// Issue issues signed access and refresh tokens for u.
func (t *Tokens) Issue(u model.User) (TokenPair, error) {
	now := t.now()
	accessExp := now.Add(t.AccessTTL)
	refreshExp := now.Add(t.RefreshTTL)

	accessToken, err := t.sign(t.claims(u, TypeAccess, now, accessExp))
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := t.sign(t.claims(u, TypeRefresh, now, refreshExp))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (t *Tokens) claims(u model.User, typ string, now, exp time.Time) Claims {
	c := Claims{
		Type: typ,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.Issuer,
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	// Refresh tokens only identify the user; profile data is reloaded on
	// refresh.
	if typ == TypeAccess {
		c.Name, c.Email, c.StudentProfile = u.Name, u.Email, u.StudentProfile
	}
	return c
}

func (t *Tokens) sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.Key)
}

// Parse validates a token of the wanted type and returns claims.
func (t *Tokens) Parse(tokenStr, wantType string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.Key, nil
	}, opts...)
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.Type != wantType {
		return Claims{}, errors.New("wrong token type")
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Claims{}, errors.New("token has no usable subject")
	}
	return *claims, nil
}
