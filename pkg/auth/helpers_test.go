package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// genRSAKey generates a test signing key. 2048 bits keeps test runtime
// reasonable while matching what real identity providers issue.
func genRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// jwksDoc renders a JWKS document for the given kid -> public key map.
func jwksDoc(t *testing.T, keys map[string]*rsa.PublicKey) []byte {
	t.Helper()
	doc := jwksDocument{}
	for kid, pub := range keys {
		doc.Keys = append(doc.Keys, jwkEntry{
			Kty: "RSA",
			Kid: kid,
			Use: "sig",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	body, err := json.Marshal(doc)
	require.NoError(t, err)
	return body
}

// jwksServer serves a swappable JWKS document and counts fetches.
type jwksServer struct {
	*httptest.Server
	doc      atomic.Pointer[[]byte]
	fetches  atomic.Int64
	failWith atomic.Int64 // non-zero status forces failures
}

func newJWKSServer(t *testing.T, initial []byte) *jwksServer {
	t.Helper()
	s := &jwksServer{}
	s.doc.Store(&initial)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)
		if status := s.failWith.Load(); status != 0 {
			w.WriteHeader(int(status))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(*s.doc.Load())
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) setDoc(doc []byte)  { s.doc.Store(&doc) }
func (s *jwksServer) fetchCount() int64  { return s.fetches.Load() }
func (s *jwksServer) failWithStatus(c int) { s.failWith.Store(int64(c)) }

// testConfig returns a validated Config pointing at the given JWKS URL.
func testConfig(t *testing.T, jwksURL string) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.IssuerURL = "https://idp.haventide.test"
	cfg.Audience = "haventide-api"
	cfg.JWKSURL = jwksURL
	if verr := cfg.Validate(); verr != nil {
		t.Fatalf("test config invalid: %v", verr)
	}
	return cfg
}

// signToken signs claims with the given key and kid header.
func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

// standardClaims returns a claim set that passes every validator check
// against testConfig. Callers override individual claims per test.
func standardClaims(overrides jwt.MapClaims) jwt.MapClaims {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":       "https://idp.haventide.test",
		"aud":       "haventide-api",
		"sub":       "user-1234",
		"iat":       now.Unix(),
		"exp":       now.Add(30 * time.Minute).Unix(),
		"tenant_id": "clinic-north",
	}
	for k, v := range overrides {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	return claims
}
