package services

import (
	"errors"
	"strings"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tokenIssuer = "dazza"
	tokenTTL    = 24 * time.Hour

	minPasswordLen = 8
)

// AuthService issues and checks the signed tokens hosts use against the
// operator API. The chat gateway never comes through here; it presents
// its shared key at the middleware layer instead.
type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: []byte(jwtSecret)}
}

// Register creates a host account and returns a session token. Usernames
// are stored lowercase so "Shazza" and "shazza" can't end up as separate
// accounts.
func (s *AuthService) Register(username, password string) (string, error) {
	username = normalizeUsername(username)
	if username == "" {
		return "", errors.New("username is required")
	}
	if len(password) < minPasswordLen {
		return "", errors.New("password must be at least 8 characters")
	}

	var existing models.Host
	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return "", errors.New("username already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	host := models.Host{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.db.Create(&host).Error; err != nil {
		return "", err
	}

	return s.GenerateToken(host.ID)
}

// Login verifies credentials and returns a fresh token. The error is the
// same whether the username or the password was wrong.
func (s *AuthService) Login(username, password string) (string, error) {
	var host models.Host
	if err := s.db.Where("username = ?", normalizeUsername(username)).First(&host).Error; err != nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(host.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	return s.GenerateToken(host.ID)
}

func (s *AuthService) GenerateToken(hostID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"host_id": hostID,
		"iss":     tokenIssuer,
		"exp":     now.Add(tokenTTL).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken returns the host ID a token was issued to. Tokens signed
// with the wrong method, the wrong issuer, or past their expiry are all
// rejected the same way.
func (s *AuthService) ValidateToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (interface{}, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}

	hostID, ok := claims["host_id"].(float64)
	if !ok {
		return 0, errors.New("invalid host_id in token")
	}

	return uint(hostID), nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
