// Package session resolves the conversation token a client is bound to.
//
// A token found in the page address is adopted as is. Otherwise a new random
// token is generated and written back into the address so the conversation can
// be shared or resumed from the address alone.
package session

import (
	"fmt"
	"io"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"vocaloop/internal/domain"
)

// QueryParam is the address parameter carrying the session token.
const QueryParam = "session_id"

// Resolver builds session identities. The zero value uses crypto/rand.
type Resolver struct {
	// Random overrides the secure random source, mainly for tests.
	Random io.Reader
}

// Resolve adopts the session token from address or generates a new one.
func Resolve(address string) domain.Session {
	return Resolver{}.Resolve(address)
}

func (r Resolver) Resolve(address string) domain.Session {
	parsed, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("ignoring unparseable page address")
		parsed = &url.URL{}
	}

	query := parsed.Query()
	if id := strings.TrimSpace(query.Get(QueryParam)); id != "" {
		return domain.Session{ID: id, Address: parsed.String(), Resumed: true}
	}

	id := r.newToken()
	query.Set(QueryParam, id)
	parsed.RawQuery = query.Encode()
	return domain.Session{ID: id, Address: parsed.String()}
}

// ShareLink returns address with the session token set, leaving other
// parameters untouched.
func ShareLink(address string, id string) string {
	parsed, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		parsed = &url.URL{}
	}
	query := parsed.Query()
	query.Set(QueryParam, id)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func (r Resolver) newToken() string {
	var (
		id  uuid.UUID
		err error
	)
	if r.Random != nil {
		id, err = uuid.NewRandomFromReader(r.Random)
	} else {
		id, err = uuid.NewRandom()
	}
	if err == nil {
		return id.String()
	}

	log.Warn().Err(err).Msg("secure random source unavailable, using pseudo-random session token")
	return pseudoRandomToken()
}

func pseudoRandomToken() string {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	var b [16]byte
	for i := range b {
		b[i] = byte(src.Intn(256))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
