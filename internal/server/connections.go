package server

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// clientList tracks the live connections and the addresses that were recently rejected.
type clientList struct {
	sync.RWMutex
	clients map[*Client]struct{}

	// Remote IPs refused until their entry expires.
	cooldown    *cache.Cache
	cooldownFor time.Duration
}

func newClientList(cooldownFor time.Duration) *clientList {
	return &clientList{
		clients:     make(map[*Client]struct{}),
		cooldown:    cache.New(cooldownFor, time.Minute),
		cooldownFor: cooldownFor,
	}
}

func (cl *clientList) add(c *Client) {
	cl.Lock()
	cl.clients[c] = struct{}{}
	cl.Unlock()
}

func (cl *clientList) remove(c *Client) {
	cl.Lock()
	delete(cl.clients, c)
	cl.Unlock()
}

func (cl *clientList) len() int {
	cl.RLock()
	defer cl.RUnlock()
	return len(cl.clients)
}

// closeAll closes every live connection; their goroutines clean up after themselves.
func (cl *clientList) closeAll() {
	cl.RLock()
	defer cl.RUnlock()
	for c := range cl.clients {
		_ = c.Close()
	}
}

// reject starts the cool-down period for ip. A zero cool-down disables it.
func (cl *clientList) reject(ip string) {
	if cl.cooldownFor <= 0 {
		return
	}
	cl.cooldown.SetDefault(ip, struct{}{})
}

// coolingDown reports whether connections from ip are currently refused.
func (cl *clientList) coolingDown(ip string) bool {
	_, found := cl.cooldown.Get(ip)
	return found
}
