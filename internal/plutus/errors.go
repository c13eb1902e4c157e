// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plutus

import "fmt"

// DecodeError identifies a structured Plutus decode failure with the byte
// position of the offending item, so a warning log can point at the
// misread field without dumping the whole transaction.
type DecodeError struct {
	Position int
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("plutus: decode error at byte %d: %s", e.Position, e.Reason)
}

func decodeErr(pos int, format string, args ...any) error {
	return &DecodeError{Position: pos, Reason: fmt.Sprintf(format, args...)}
}
