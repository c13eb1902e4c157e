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

package sundaev3

// PaymentCredential extracts the payment part of a CIP-19 address, given its
// raw bytes. Base addresses (types 0-3) and enterprise addresses (types 6-7)
// both carry the payment credential at bytes[1:29]; the low bit of the
// address type distinguishes a key hash (0) from a script hash (1). Other
// address shapes (pointer, Byron, reward) have no fixed-offset payment
// credential and are reported as not-ok.
func PaymentCredential(addrBytes []byte) (hash []byte, isScript bool, ok bool) {
	if len(addrBytes) == 0 {
		return nil, false, false
	}
	header := addrBytes[0]
	addrType := (header & 0xF0) >> 4

	switch {
	case addrType <= 0x3:
		// Base address: payment credential, then stake credential.
		if len(addrBytes) != 57 {
			return nil, false, false
		}
	case addrType == 0x6 || addrType == 0x7:
		// Enterprise address: payment credential only.
		if len(addrBytes) != 29 {
			return nil, false, false
		}
	default:
		return nil, false, false
	}

	hash = append([]byte(nil), addrBytes[1:29]...)
	isScript = addrType&0x1 == 1
	return hash, isScript, true
}
