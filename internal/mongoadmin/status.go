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

package mongoadmin

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type statusMemberWire struct {
	ID                int                `bson:"_id"`
	Name              string             `bson:"name"`
	State             int                `bson:"state"`
	Self              bool               `bson:"self"`
	Health            int                `bson:"health"`
	LastHeartbeatRecv primitive.DateTime `bson:"lastHeartbeatRecv"`
	IP                string             `bson:"ip"`
}

type statusWire struct {
	Members []statusMemberWire `bson:"members"`
}

// GetStatus issues replSetGetStatus and classifies the outcome (spec
// §4.3):
//   - ok: returns the member list.
//   - code 94 (NotYetInitialized): returned as a *StatusError, not an error
//     the caller should log-and-abort on; the reconciler treats it as a
//     state-machine input.
//   - code 93 (InvalidReplicaSetConfig): likewise, returned as *StatusError.
//   - any other code, or a non-command error: surfaced as a transient
//     operational failure.
func (a *Admin) GetStatus(ctx context.Context) (*ReplSetStatus, error) {
	var wire statusWire
	if err := a.runCommand(ctx, bson.D{{Key: "replSetGetStatus", Value: 1}}, &wire); err != nil {
		return nil, err
	}

	members := make([]ReplSetMember, 0, len(wire.Members))
	for _, m := range wire.Members {
		members = append(members, ReplSetMember{
			ID:                m.ID,
			Name:              m.Name,
			State:             m.State,
			Self:              m.Self,
			Health:            m.Health,
			LastHeartbeatRecv: m.LastHeartbeatRecv.Time(),
			IP:                m.IP,
		})
	}
	return &ReplSetStatus{Members: members}, nil
}

// UnhealthySince reports whether m is unhealthy and has been so for
// longer than threshold, as of now (spec §4.6.1 removals / §8 "removal
// threshold" invariant: removed iff t > unhealthySeconds, a strict
// inequality).
func (m ReplSetMember) UnhealthySince(now time.Time, threshold time.Duration) bool {
	if m.Health != 0 {
		return false
	}
	return now.Sub(m.LastHeartbeatRecv) > threshold
}
