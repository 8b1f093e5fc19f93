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

// Package mongoadmin implements typed operations on a MongoDB admin
// connection (spec §4.3): replSetGetStatus, replSetInitiate,
// replSetReconfig (with force), and a liveness probe against a remote
// address.
package mongoadmin

import "time"

// ReplSetMember is one element of the current replica-set configuration
// as reported by replSetGetStatus (spec §3).
type ReplSetMember struct {
	ID                int
	Name              string // a MemberAddress
	State             int    // 1 == PRIMARY
	Self              bool
	Health            int // 0 or 1
	LastHeartbeatRecv time.Time
	IP                string // optional
}

// IsPrimary reports whether this member currently holds the PRIMARY role.
func (m ReplSetMember) IsPrimary() bool {
	return m.State == 1
}

// ReplSetStatus is the outcome of a replSetGetStatus call that returned
// ok:1.
type ReplSetStatus struct {
	Members []ReplSetMember
}

// Primary returns the member in state PRIMARY, if any.
func (s ReplSetStatus) Primary() (ReplSetMember, bool) {
	for _, m := range s.Members {
		if m.IsPrimary() {
			return m, true
		}
	}
	return ReplSetMember{}, false
}

// SelfPrimary reports whether the connected instance (member.self) is the
// PRIMARY.
func (s ReplSetStatus) SelfPrimary() bool {
	p, ok := s.Primary()
	return ok && p.Self
}

// configMember is the wire shape of one member inside a replSetGetConfig /
// replSetReconfig / replSetInitiate config document.
type configMember struct {
	ID   int    `bson:"_id"`
	Host string `bson:"host"`
}

// replSetConfig is the wire shape of a replica-set config document, as
// returned by replSetGetConfig and accepted by replSetReconfig.
type replSetConfig struct {
	ID      string         `bson:"_id,omitempty"`
	Version int            `bson:"version"`
	Members []configMember `bson:"members"`
}
