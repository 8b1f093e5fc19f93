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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// IsInReplSet itself dials a real connection via Connect, so it isn't
// reachable from a mock deployment; probeStatus carries the branching
// IsInReplSet delegates to, and is exercised directly against an *Admin
// built on mt.Client.

func TestProbeStatusReportsMembershipOnSuccess(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("in set", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "members", Value: bson.A{}}})

		a := &Admin{client: mt.Client, database: "admin"}
		inSet, err := probeStatus(context.Background(), a)
		require.NoError(mt, err)
		assert.True(mt, inSet)
	})
}

func TestProbeStatusReportsFalseOnNotYetInitialized(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("not yet initialized", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: CodeNotYetInitialized,
			Name: "NotYetInitialized",
		}))

		a := &Admin{client: mt.Client, database: "admin"}
		inSet, err := probeStatus(context.Background(), a)
		require.NoError(mt, err, "NotYetInitialized must not be surfaced as a probe failure")
		assert.False(mt, inSet)
	})
}

func TestProbeStatusPropagatesOtherErrors(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("unauthorized", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13,
			Name: "Unauthorized",
		}))

		a := &Admin{client: mt.Client, database: "admin"}
		_, err := probeStatus(context.Background(), a)
		// Design Notes §9: a probe failure must not be silently treated
		// as "not in set".
		require.Error(mt, err)
	})
}
