package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blogapi/internal/models"
	"blogapi/internal/policy"
	"blogapi/internal/store"
	"blogapi/internal/utils"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = policy.ErrUnauthenticated
)

// Store is the subset of storage the provider needs.
type Store interface {
	store.UserStore
	store.TokenStore
}

// Provider issues, resolves and revokes bearer tokens. A token is an HS256
// JWT whose jti names an access_tokens row, so it can be revoked on its own.
type Provider struct {
	store  Store
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

type Token struct {
	ID        string
	Value     string
	UserID    uint
	ExpiresAt time.Time
}

func NewProvider(st Store, secret string, ttl time.Duration, cost int) *Provider {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Provider{
		store:  st,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   cost,
		now:    time.Now,
	}
}

func (p *Provider) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticate checks credentials and issues a new token. Unknown email and
// wrong password both yield ErrInvalidCredentials.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (Token, models.User, error) {
	user, err := p.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return Token{}, models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, models.User{}, fmt.Errorf("find user: %w", err)
	}
	if !CheckPassword(user.Password, password) {
		return Token{}, models.User{}, ErrInvalidCredentials
	}

	token, err := p.Issue(ctx, user, "login")
	if err != nil {
		return Token{}, models.User{}, err
	}
	return token, user, nil
}

func (p *Provider) Issue(ctx context.Context, user models.User, name string) (Token, error) {
	now := p.now()
	row := models.AccessToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      name,
		ExpiresAt: now.Add(p.ttl),
	}
	if err := p.store.CreateToken(ctx, &row); err != nil {
		return Token{}, fmt.Errorf("store token: %w", err)
	}

	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"jti": row.ID,
		"iat": now.Unix(),
		"exp": row.ExpiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{ID: row.ID, Value: signed, UserID: user.ID, ExpiresAt: row.ExpiresAt}, nil
}

// Resolve returns the identity behind a raw bearer token or ErrUnauthenticated.
func (p *Provider) Resolve(ctx context.Context, raw string) (*policy.Identity, error) {
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := p.decode(raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	tokenID, _ := claims["jti"].(string)
	subject, _ := claims["sub"].(string)
	if tokenID == "" || subject == "" {
		return nil, ErrUnauthenticated
	}

	row, err := p.store.GetToken(ctx, tokenID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	now := p.now()
	if row.RevokedAt != nil || !now.Before(row.ExpiresAt) {
		return nil, ErrUnauthenticated
	}
	if subject != strconv.FormatUint(uint64(row.UserID), 10) {
		return nil, ErrUnauthenticated
	}

	user, err := p.store.GetUser(ctx, row.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := p.store.TouchToken(ctx, row.ID, now); err != nil {
		utils.LogError(err, "Failed to update token last_used_at")
	}

	return &policy.Identity{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Roles:   []string{user.Role},
		TokenID: row.ID,
	}, nil
}

// Revoke invalidates a single token. Other tokens of the same user stay valid.
func (p *Provider) Revoke(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return ErrUnauthenticated
	}
	return p.store.RevokeToken(ctx, tokenID, p.now())
}

func (p *Provider) decode(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signature method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid or expired token")
}
