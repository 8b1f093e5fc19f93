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

// wireInitiate mirrors the replSetInitiate command document just enough
// to assert on the fields that matter: this is the regression test for
// the bug where an unset Version zero-valued into the wire document and
// a real server rejected it.
type wireInitiate struct {
	Config struct {
		Version int32 `bson:"version"`
		Members []struct {
			ID   int32  `bson:"_id"`
			Host string `bson:"host"`
		} `bson:"members"`
	} `bson:"replSetInitiate"`
}

func TestInitiateSendsPositiveVersion(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("version", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}})

		a := &Admin{client: mt.Client, database: "admin"}
		err := a.Initiate(context.Background(), "10.0.0.2:27017")
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "replSetInitiate", started.CommandName)

		var sent wireInitiate
		require.NoError(mt, bson.Unmarshal(started.Command, &sent))
		assert.Equal(mt, int32(1), sent.Config.Version, "a zero version is rejected by a real server")
		require.Len(mt, sent.Config.Members, 1)
		assert.Equal(mt, int32(0), sent.Config.Members[0].ID)
		assert.Equal(mt, "10.0.0.2:27017", sent.Config.Members[0].Host)
	})
}

func TestReconfigureAppliesAdditionsAndRemovalsInOneSubmission(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("force", func(mt *mtest.T) {
		currentConfig := bson.D{
			{Key: "ok", Value: 1},
			{Key: "config", Value: bson.D{
				{Key: "_id", Value: "rs0"},
				{Key: "version", Value: 3},
				{Key: "members", Value: bson.A{
					bson.D{{Key: "_id", Value: 0}, {Key: "host", Value: "10.0.0.2:27017"}},
					bson.D{{Key: "_id", Value: 1}, {Key: "host", Value: "10.0.0.9:27017"}},
				}},
			}},
		}
		mt.AddMockResponses(currentConfig, bson.D{{Key: "ok", Value: 1}})

		a := &Admin{client: mt.Client, database: "admin"}
		err := a.Reconfigure(context.Background(), []string{"10.0.0.3:27017"}, []string{"10.0.0.9:27017"}, true)
		require.NoError(mt, err)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Equal(mt, "replSetGetConfig", events[0].CommandName)
		assert.Equal(mt, "replSetReconfig", events[1].CommandName)

		var sent struct {
			Config struct {
				ID      string `bson:"_id"`
				Version int32  `bson:"version"`
				Members []struct {
					ID   int32  `bson:"_id"`
					Host string `bson:"host"`
				} `bson:"members"`
			} `bson:"replSetReconfig"`
			Force bool `bson:"force"`
		}
		require.NoError(mt, bson.Unmarshal(events[1].Command, &sent))

		assert.True(mt, sent.Force)
		assert.Equal(mt, "rs0", sent.Config.ID)
		assert.Equal(mt, int32(4), sent.Config.Version, "version must be bumped past the config just read")

		hosts := make([]string, 0, len(sent.Config.Members))
		for _, m := range sent.Config.Members {
			hosts = append(hosts, m.Host)
		}
		assert.ElementsMatch(mt, []string{"10.0.0.2:27017", "10.0.0.3:27017"}, hosts,
			"the removed member is dropped and the new one appended")

		var newMemberID int32 = -1
		for _, m := range sent.Config.Members {
			if m.Host == "10.0.0.3:27017" {
				newMemberID = m.ID
			}
		}
		assert.Equal(mt, int32(2), newMemberID, "new member ids continue past the highest existing id")
	})
}
