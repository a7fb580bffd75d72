// Package chaltoken signs challenge second so that submission can be
// checked against challenge which was actually shown, without server state.
package chaltoken

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"docdrop/lib/challenge"
	"docdrop/lib/utils/date"
)

var methodWeUse = jwt.SigningMethodHS256

var ErrInvalidToken = errors.New("invalid challenge token")

type claims struct {
	Bucket int64 `json:"bkt"`
	jwt.StandardClaims
}

type Issuer struct {
	key []byte
	ttl time.Duration
}

// NewIssuer makes issuer signing with key; tokens live for ttl.
func NewIssuer(key []byte, ttl time.Duration) (*Issuer, error) {
	if len(key) < 16 {
		return nil, errors.New("challenge token key too short (need at least 16 bytes)")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("bad challenge token ttl %v", ttl)
	}
	k := append([]byte(nil), key...)
	return &Issuer{key: k, ttl: ttl}, nil
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs second of bucket.
func (i *Issuer) Issue(bucket time.Time) (string, error) {
	c := claims{
		Bucket: bucket.Unix(),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  bucket.Unix(),
			ExpiresAt: bucket.Add(i.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(methodWeUse, c)
	s, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("err from token.SignedString: %v", err)
	}
	return s, nil
}

// Parse checks signature and expiry relative to now and returns signed
// bucket in UTC. Expired token gives challenge.ErrExpired.
func (i *Issuer) Parse(tok string, now time.Time) (bucket time.Time, err error) {
	var c claims
	p := jwt.Parser{SkipClaimsValidation: true}
	t, err := p.ParseWithClaims(tok, &c, func(token *jwt.Token) (interface{}, error) {
		m, ok := token.Method.(*jwt.SigningMethodHMAC)
		if !ok || m != methodWeUse {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid || c.Bucket == 0 || c.ExpiresAt == 0 {
		return time.Time{}, ErrInvalidToken
	}
	if !c.VerifyExpiresAt(now.Unix(), true) {
		return time.Time{}, challenge.ErrExpired
	}
	return date.UnixTimeUTC(c.Bucket), nil
}
