// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"net"
	"net/http"
	"sync"
)

// ipKeyFromRemoteAddr extracts a limiter key from a request's remote address.
// IPv4 addresses key on the bare IP. IPv6 addresses key on the /64 prefix so
// that a client rotating within one subnet still counts as one source.
// Addresses that do not parse return an empty string and are not limited.
func ipKeyFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return ""
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	if ip4 := ip.To4(); ip4 != nil {
		return ip4.String()
	}
	mask := net.CIDRMask(64, 128)
	return ip.Mask(mask).String() + "/64"
}

// ipLimiter caps the number of in-flight requests per source address
type ipLimiter struct {
	mu    sync.Mutex
	max   int
	conns map[string]int
}

func newIPLimiter(maxPerIP int) *ipLimiter {
	return &ipLimiter{
		max:   maxPerIP,
		conns: make(map[string]int),
	}
}

// acquire reserves a slot for ipKey and reports whether the request may
// proceed
func (l *ipLimiter) acquire(ipKey string) bool {
	if ipKey == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conns[ipKey] >= l.max {
		return false
	}
	l.conns[ipKey]++
	return true
}

func (l *ipLimiter) release(ipKey string) {
	if ipKey == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conns[ipKey]--
	if l.conns[ipKey] <= 0 {
		delete(l.conns, ipKey)
	}
}

// inFlight returns the current request count for an IP key
func (l *ipLimiter) inFlight(ipKey string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conns[ipKey]
}

// middleware answers 429 once a source already has max requests in flight
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipKey := ipKeyFromRemoteAddr(r.RemoteAddr)
		if !l.acquire(ipKey) {
			writeError(w, http.StatusTooManyRequests, "too many concurrent requests")
			return
		}
		defer l.release(ipKey)
		next.ServeHTTP(w, r)
	})
}
