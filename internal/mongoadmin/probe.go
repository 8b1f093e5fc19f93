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
)

// IsInReplSet opens a short-lived connection to remoteAddress and asks
// that instance for its replica-set status (spec §4.3). It returns true
// iff the remote reports membership, false on NotYetInitialized, and
// propagates any other error — Design Notes §9 is explicit that a probe
// failure must not be silently treated as "not in set".
func IsInReplSet(ctx context.Context, remoteAddress, database string) (bool, error) {
	admin, err := Connect(ctx, remoteAddress, database)
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", remoteAddress, err)
	}
	defer admin.Close(ctx)

	inSet, err := probeStatus(ctx, admin)
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", remoteAddress, err)
	}
	return inSet, nil
}

// probeStatus holds the classification half of IsInReplSet, split out so
// it can be exercised against an *Admin built directly on a test client
// without a real network connection.
func probeStatus(ctx context.Context, admin *Admin) (bool, error) {
	_, err := admin.GetStatus(ctx)
	if err == nil {
		return true, nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.NotYetInitialized() {
		return false, nil
	}
	return false, err
}
