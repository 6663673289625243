package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	defaultKeyTTL  = time.Hour
	keyFetchTimeout = 10 * time.Second
)

// KeyCache holds the signing certificates published at a URL. The set is
// refetched only after its Cache-Control max-age elapses; an unknown key id
// seen while the set is fresh is rejected without a fetch. Concurrent
// refreshes share one request and no lock is held while it runs.
type KeyCache struct {
	url    string
	client *http.Client
	now    func() time.Time
	group  singleflight.Group

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

// NewKeyCache creates a cache for the certificate map at url. A nil client
// uses one with a short timeout.
func NewKeyCache(url string, client *http.Client) *KeyCache {
	if client == nil {
		client = &http.Client{Timeout: keyFetchTimeout}
	}
	return &KeyCache{url: url, client: client, now: time.Now}
}

// Key returns the public key for kid, fetching certificates if the cached
// set has expired.
func (c *KeyCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	keys, fresh := c.snapshot()
	if !fresh {
		var err error
		if keys, err = c.refresh(ctx); err != nil {
			return nil, err
		}
	}

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}

func (c *KeyCache) snapshot() (map[string]*rsa.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys, c.now().Before(c.expires)
}

// refresh fetches the certificate set once for all concurrent callers. The
// fetch outlives a cancelled caller so the others still get a result.
func (c *KeyCache) refresh(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	ch := c.group.DoChan("certs", func() (any, error) {
		if keys, fresh := c.snapshot(); fresh {
			return keys, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), keyFetchTimeout)
		defer cancel()

		keys, ttl, err := c.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.keys = keys
		c.expires = c.now().Add(ttl)
		c.mu.Unlock()
		return keys, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[string]*rsa.PublicKey), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *KeyCache) fetch(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating certificate request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("fetching certificates: unexpected status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return nil, 0, fmt.Errorf("decoding certificates: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, 0, fmt.Errorf("parsing certificate %s: %w", kid, err)
		}
		keys[kid] = key
	}

	return keys, maxAge(resp.Header.Get("Cache-Control")), nil
}

// maxAge extracts max-age from a Cache-Control header.
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		secs, err := strconv.Atoi(value)
		if err != nil || secs <= 0 {
			break
		}
		return time.Duration(secs) * time.Second
	}
	return defaultKeyTTL
}
