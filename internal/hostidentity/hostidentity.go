/*
Copyright 2024 Keiailab.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package hostidentity holds the process-wide identity of the pod this
// sidecar instance runs in: its own IP, resolved once at startup.
package hostidentity

import (
	"fmt"
	"net"
	"os"
	"sync"
)

// Identity is the resolved identity of the local pod.
type Identity struct {
	// IP is the pod's own IPv4 address.
	IP string
	// Address is IP:port, the unstable form of this pod's own address.
	Address string
}

var (
	once  sync.Once
	value *Identity
	set   bool
)

// Set resolves the local hostname to an IPv4 address and stores it. It must
// be called exactly once, before any tick runs. Calling it more than once
// is a no-op after the first call.
func Set(port int) error {
	var err error
	once.Do(func() {
		hostname, herr := os.Hostname()
		if herr != nil {
			err = fmt.Errorf("resolving hostname: %w", herr)
			return
		}
		addrs, lerr := net.LookupIP(hostname)
		if lerr != nil {
			err = fmt.Errorf("looking up IP for hostname %q: %w", hostname, lerr)
			return
		}
		var ip net.IP
		for _, a := range addrs {
			if v4 := a.To4(); v4 != nil {
				ip = v4
				break
			}
		}
		if ip == nil {
			err = fmt.Errorf("no IPv4 address found for hostname %q", hostname)
			return
		}
		value = &Identity{
			IP:      ip.String(),
			Address: fmt.Sprintf("%s:%d", ip.String(), port),
		}
		set = true
	})
	return err
}

// Get returns the process identity. It panics if Set has not yet
// succeeded — every tick requires HostIdentity as a precondition (spec
// §4.1), and silently proceeding with a zero-value identity would be an
// invariant violation, not a recoverable error.
func Get() Identity {
	if !set {
		panic("hostidentity: Get called before Set succeeded")
	}
	return *value
}

// IsSet reports whether Set has succeeded, without panicking.
func IsSet() bool {
	return set
}
