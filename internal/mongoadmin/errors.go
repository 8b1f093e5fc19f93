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

import "fmt"

// MongoDB numeric command-error codes the reconciler dispatches on
// (spec §4.3). Any other code is a transient operational error.
const (
	CodeInvalidReplicaSetConfig = 93
	CodeNotYetInitialized       = 94
)

// StatusError wraps a MongoDB command error with its numeric code, so the
// reconciler can classify it by inspecting Code rather than matching
// error text.
type StatusError struct {
	Code    int
	Name    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mongo command error %d (%s): %s", e.Code, e.Name, e.Message)
}

// NotYetInitialized reports whether err is code 94: this instance has no
// replica-set configuration.
func (e *StatusError) NotYetInitialized() bool {
	return e.Code == CodeNotYetInitialized
}

// InvalidConfig reports whether err is code 93: configuration present but
// quorum-lost / unrecoverable from the database's point of view.
func (e *StatusError) InvalidConfig() bool {
	return e.Code == CodeInvalidReplicaSetConfig
}
