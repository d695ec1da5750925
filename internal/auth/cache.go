package auth

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// PrincipalCache keeps recently resolved principals by profile id so token
// checks skip the profile lookup. Balances are never cached here.
type PrincipalCache struct {
	cache *lru.Cache
}

func NewPrincipalCache(size int) (*PrincipalCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("new principal cache: %w", err)
	}
	return &PrincipalCache{cache: c}, nil
}

func (c *PrincipalCache) Get(profileID int64) (AuthContext, bool) {
	v, ok := c.cache.Get(profileID)
	if !ok {
		return AuthContext{}, false
	}
	return v.(AuthContext), true
}

func (c *PrincipalCache) Add(ac AuthContext) {
	c.cache.Add(ac.ProfileID, ac)
}

func (c *PrincipalCache) Remove(profileID int64) {
	c.cache.Remove(profileID)
}

func (c *PrincipalCache) Len() int {
	return c.cache.Len()
}
