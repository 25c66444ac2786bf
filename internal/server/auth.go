package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bernatvadell/muonline-sub002/internal/config"
	"github.com/bernatvadell/muonline-sub002/pkg/models"
)

// Blacklist reports whether a user has been revoked
type Blacklist interface {
	IsBlacklisted(ctx context.Context, userID string) (bool, error)
}

// redisBlacklist checks revoked users stored as <prefix><user id> keys
type redisBlacklist struct {
	client *redis.Client
	prefix string
}

func (b redisBlacklist) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// JWTValidator handles JWT token validation
type JWTValidator struct {
	issuer     string
	keyURL     string
	refresh    time.Duration
	blacklist  Blacklist
	httpClient *http.Client

	publicKey *ecdsa.PublicKey
	keyMu     sync.RWMutex
}

// Claims represents JWT token claims issued by the login server
type Claims struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	UserType    string `json:"user_type"`
	AuthMethod  string `json:"auth_method"`
	Permissions int64  `json:"permissions"`
	Activated   int64  `json:"activated"`
	jwt.RegisteredClaims
}

// NewJWTValidator creates a validator, fetching the public key once before
// returning and then refreshing it in the background
func NewJWTValidator(cfg *config.Config, redisClient *redis.Client) (*JWTValidator, error) {
	v := &JWTValidator{
		issuer:     cfg.JWT.Issuer,
		keyURL:     cfg.JWT.PublicKeyURL,
		refresh:    time.Duration(cfg.JWT.PublicKeyRefreshHrs) * time.Hour,
		blacklist:  redisBlacklist{client: redisClient, prefix: cfg.Redis.BlacklistPrefix},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	if err := v.RefreshPublicKey(); err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}

	go v.periodicKeyRefresh()

	log.Println("JWT validator initialized")
	return v, nil
}

// RefreshPublicKey fetches the ES256 verification key
func (v *JWTValidator) RefreshPublicKey() error {
	log.Printf("Fetching public key from %s", v.keyURL)

	resp, err := v.httpClient.Get(v.keyURL)
	if err != nil {
		return fmt.Errorf("failed to fetch public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("public key endpoint returned status %d", resp.StatusCode)
	}

	keyData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}

	key, err := parsePublicKey(keyData)
	if err != nil {
		return err
	}
	v.setPublicKey(key)

	log.Println("Public key refreshed successfully")
	return nil
}

func (v *JWTValidator) setPublicKey(key *ecdsa.PublicKey) {
	v.keyMu.Lock()
	v.publicKey = key
	v.keyMu.Unlock()
}

// parsePublicKey decodes a PEM encoded PKIX ECDSA public key
func parsePublicKey(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	key, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not ECDSA")
	}
	return key, nil
}

// periodicKeyRefresh refreshes the public key periodically
func (v *JWTValidator) periodicKeyRefresh() {
	if v.refresh <= 0 {
		return
	}
	ticker := time.NewTicker(v.refresh)
	defer ticker.Stop()

	for range ticker.C {
		if err := v.RefreshPublicKey(); err != nil {
			log.Printf("Failed to refresh public key: %v", err)
		}
	}
}

// ValidateToken validates a JWT token and returns player information
func (v *JWTValidator) ValidateToken(ctx context.Context, tokenString string) (*models.Player, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		v.keyMu.RLock()
		defer v.keyMu.RUnlock()
		if v.publicKey == nil {
			return nil, errors.New("no public key loaded")
		}
		return v.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	switch claims.Activated {
	case 0:
		return nil, errors.New("user not activated")
	case -1:
		return nil, errors.New("user is banned")
	}

	userID := strconv.FormatInt(claims.UserID, 10)
	if v.blacklist != nil {
		revoked, err := v.blacklist.IsBlacklisted(ctx, userID)
		if err != nil {
			// a failed lookup never blocks authentication
			log.Printf("Warning: Failed to check blacklist: %v", err)
		} else if revoked {
			return nil, errors.New("token is blacklisted")
		}
	}

	return &models.Player{
		ID:          userID,
		Username:    claims.Username,
		Email:       claims.Email,
		UserType:    claims.UserType,
		Permissions: claims.Permissions,
		Activated:   claims.Activated,
		AuthMethod:  claims.AuthMethod,
	}, nil
}

// extractTokenFromHeader extracts the JWT from the WebSocket handshake:
// Sec-WebSocket-Protocol "access_token, <token>", a Bearer Authorization
// header, or the token query parameter, in that order.
func extractTokenFromHeader(r *http.Request) string {
	if protocols := r.Header.Get("Sec-WebSocket-Protocol"); protocols != "" {
		parts := splitProtocols(protocols)
		if len(parts) == 2 && parts[0] == "access_token" {
			return parts[1]
		}
	}

	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token
	}

	return r.URL.Query().Get("token")
}

// splitProtocols splits a comma separated header, dropping empty entries
func splitProtocols(header string) []string {
	var result []string
	for _, part := range strings.Split(header, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
