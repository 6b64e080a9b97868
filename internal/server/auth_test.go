package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/freepath/internal/config"
	"github.com/gravitas-games/freepath/pkg/models"
)

type fakeBlacklist struct {
	keys map[string]bool
	err  error
}

func (f *fakeBlacklist) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if f.keys[k] {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func newTestValidator(t *testing.T) (*JWTValidator, *ecdsa.PrivateKey, *fakeBlacklist) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.JWT.Issuer = "login"
	bl := &fakeBlacklist{keys: map[string]bool{}}
	v := &JWTValidator{config: cfg, redis: bl, ctx: context.Background()}
	v.setPublicKey(&key.PublicKey)
	return v, key, bl
}

func sign(t *testing.T, key *ecdsa.PrivateKey, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func claimsFor(userID int64, activated int64) Claims {
	return Claims{
		UserID:      userID,
		Username:    "tester",
		Permissions: models.PermSpawnAgents,
		Activated:   activated,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "login",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	v, key, bl := newTestValidator(t)

	player, err := v.ValidateToken(sign(t, key, claimsFor(42, 1)))
	require.NoError(t, err)
	assert.Equal(t, "42", player.ID)
	assert.True(t, player.Can(models.PermSpawnAgents))
	assert.False(t, player.Can(models.PermEditMap))

	_, err = v.ValidateToken(sign(t, key, claimsFor(42, 0)))
	assert.Error(t, err, "inactive user")
	_, err = v.ValidateToken(sign(t, key, claimsFor(42, -1)))
	assert.Error(t, err, "banned user")

	wrongIssuer := claimsFor(42, 1)
	wrongIssuer.Issuer = "elsewhere"
	_, err = v.ValidateToken(sign(t, key, wrongIssuer))
	assert.Error(t, err)

	expired := claimsFor(42, 1)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = v.ValidateToken(sign(t, key, expired))
	assert.Error(t, err)

	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, err = v.ValidateToken(sign(t, other, claimsFor(42, 1)))
	assert.Error(t, err, "foreign signature")

	bl.keys["jwt:blacklist:42"] = true
	_, err = v.ValidateToken(sign(t, key, claimsFor(42, 1)))
	assert.Error(t, err, "blacklisted")

	// redis outages do not lock players out
	bl.err = errors.New("redis down")
	_, err = v.ValidateToken(sign(t, key, claimsFor(42, 1)))
	assert.NoError(t, err)
}

func TestAuthenticateExtractsToken(t *testing.T) {
	v, key, _ := newTestValidator(t)
	token := sign(t, key, claimsFor(7, 1))

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	_, err := v.Authenticate(r)
	assert.ErrorIs(t, err, errMissingToken)

	r.Header.Set("Authorization", "Bearer "+token)
	player, err := v.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "7", player.ID)

	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Sec-WebSocket-Protocol", "access_token, "+token)
	assert.Equal(t, token, extractTokenFromHeader(r))

	r = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	assert.Equal(t, token, extractTokenFromHeader(r))
}

func TestParsePublicKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	data := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	parsed, err := parsePublicKey(data)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(&key.PublicKey))

	_, err = parsePublicKey([]byte("garbage"))
	assert.Error(t, err)
}

func TestOpenAuthenticator(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?player=dev", nil)
	player, err := openAuthenticator{}.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "dev", player.ID)
	assert.True(t, player.Can(models.PermDebug))

	_, err = openAuthenticator{}.Authenticate(httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.ErrorIs(t, err, errMissingToken)
}
