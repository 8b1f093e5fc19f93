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

// Package election implements the controller's deterministic, leaderless
// choice of which pod performs a mutation (spec §4.5). It has nothing to
// do with MongoDB's own primary election.
package election

import (
	"encoding/binary"
	"net"
	"sort"

	"github.com/keiailab/mongo-replicaset-sidecar/internal/podsource"
)

// ipKey converts an IPv4 dotted-quad string into its 32-bit big-endian
// integer value. A textual sort would order "10.0.0.9" after "10.0.0.10",
// which is wrong (Design Notes §9); sorting on this integer key is correct.
func ipKey(ip string) (uint32, bool) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return 0, false
	}
	v4 := parsed.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}

// SortByIP returns pods sorted ascending by their 32-bit IPv4 value. Pods
// with an unparseable IP sort last, in input order, since they cannot
// participate in election.
func SortByIP(pods []podsource.Pod) []podsource.Pod {
	sorted := make([]podsource.Pod, len(pods))
	copy(sorted, pods)
	sort.SliceStable(sorted, func(i, j int) bool {
		ki, oki := ipKey(sorted[i].PodIP)
		kj, okj := ipKey(sorted[j].PodIP)
		if !oki {
			return false
		}
		if !okj {
			return true
		}
		return ki < kj
	})
	return sorted
}

// AmIElected reports whether the local host is the election winner among
// pods: the pod whose IP sorts lowest by the 32-bit big-endian key. Given
// distinct pod IPs — an orchestrator invariant — at steady state exactly
// one controller replica observing the same pod set returns true.
func AmIElected(pods []podsource.Pod, myIP string) bool {
	if len(pods) == 0 {
		return false
	}
	winner := SortByIP(pods)[0]
	return winner.PodIP == myIP
}
