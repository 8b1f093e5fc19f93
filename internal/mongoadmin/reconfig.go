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
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Initiate issues a replica-set initiation naming a single member equal
// to primaryAddress (spec §4.3). The config's _id is left unset: the
// mongod process's own --replSet startup option supplies the replica-set
// name, which this controller never configures directly. Version is set
// to 1, matching the default rs.initiate() itself applies; MongoDB
// rejects a config with version 0.
func (a *Admin) Initiate(ctx context.Context, primaryAddress string) error {
	cfg := replSetConfig{
		Version: 1,
		Members: []configMember{{ID: 0, Host: primaryAddress}},
	}
	return a.runCommand(ctx, bson.D{{Key: "replSetInitiate", Value: cfg}}, nil)
}

func (a *Admin) getConfig(ctx context.Context) (replSetConfig, error) {
	var wrapper struct {
		Config replSetConfig `bson:"config"`
	}
	if err := a.runCommand(ctx, bson.D{{Key: "replSetGetConfig", Value: 1}}, &wrapper); err != nil {
		return replSetConfig{}, fmt.Errorf("reading current config: %w", err)
	}
	return wrapper.Config, nil
}

// Reconfigure reads the current config, appends one entry per address in
// additions with a fresh monotonically increasing member id, drops
// entries whose host is in removals, bumps the config version, and
// submits the result (spec §4.3). Additions and removals are applied in
// the same submission — they are never split into two RPCs, since an
// intermediate state could transiently drop quorum (Design Notes §9).
func (a *Admin) Reconfigure(ctx context.Context, additions []string, removals []string, force bool) error {
	cfg, err := a.getConfig(ctx)
	if err != nil {
		return err
	}

	removeSet := make(map[string]bool, len(removals))
	for _, r := range removals {
		removeSet[r] = true
	}

	kept := make([]configMember, 0, len(cfg.Members))
	maxID := -1
	for _, m := range cfg.Members {
		if m.ID > maxID {
			maxID = m.ID
		}
		if removeSet[m.Host] {
			continue
		}
		kept = append(kept, m)
	}

	nextID := maxID + 1
	for _, addr := range additions {
		kept = append(kept, configMember{ID: nextID, Host: addr})
		nextID++
	}

	cfg.Members = kept
	cfg.Version++

	cmd := bson.D{
		{Key: "replSetReconfig", Value: cfg},
		{Key: "force", Value: force},
	}
	return a.runCommand(ctx, cmd, nil)
}
