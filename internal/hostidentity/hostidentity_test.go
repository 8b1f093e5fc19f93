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

package hostidentity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Set is sync.Once-guarded process-wide global state, so every test in
// this package observes the same resolution outcome; these tests only
// assert properties that hold regardless of which the runner resolved.

func TestSetThenGetReturnsResolvedIdentity(t *testing.T) {
	err := Set(27017)
	assert.NoError(t, err)
	assert.True(t, IsSet())

	id := Get()
	assert.NotEmpty(t, id.IP)
	assert.Equal(t, id.IP+":27017", id.Address)
}

func TestSetIsIdempotent(t *testing.T) {
	_ = Set(27017)
	first := Get()

	// A second call with a different port must not change the stored
	// identity: Set is documented as a no-op after the first success.
	_ = Set(9999)
	second := Get()

	assert.Equal(t, first, second)
}
