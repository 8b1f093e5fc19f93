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
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Admin is a typed client over a single MongoDB admin connection. It is
// opened at the start of a tick and closed on every exit path (spec §5).
type Admin struct {
	client   *mongo.Client
	database string
}

// Connect opens a direct (single-node) connection to address and returns
// an Admin bound to database. directConnection is required: at the point
// this is called the target may not yet belong to a formed replica set,
// and a non-direct connection would refuse to select a server with no
// primary.
func Connect(ctx context.Context, address, database string) (*Admin, error) {
	uri := fmt.Sprintf("mongodb://%s/%s", address, database)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetDirect(true))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging %s: %w", address, err)
	}
	return &Admin{client: client, database: database}, nil
}

// Close releases the underlying connection. Safe to call on every exit
// path of a tick.
func (a *Admin) Close(ctx context.Context) error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

// runCommand issues cmd against the admin database and decodes the reply
// into out (which may be nil). Command errors are converted into
// *StatusError so callers can classify by numeric code.
func (a *Admin) runCommand(ctx context.Context, cmd bson.D, out interface{}) error {
	raw, err := a.client.Database(a.database).RunCommand(ctx, cmd).Raw()
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			return &StatusError{Code: int(cmdErr.Code), Name: cmdErr.Name, Message: cmdErr.Message}
		}
		return fmt.Errorf("running command %v: %w", cmd, err)
	}
	if out != nil {
		if err := bson.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding reply to %v: %w", cmd, err)
		}
	}
	return nil
}
