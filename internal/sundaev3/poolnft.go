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

// cip67Label222 is the CIP-67 asset-name label identifying a pool's unique
// NFT, asserted over the pool's ident bytes.
var cip67Label222 = [4]byte{0x00, 0x0d, 0xe1, 0x40}

// PoolNFTName returns the asset name a pool's identifying NFT must carry:
// the CIP-67 label 222 followed by the pool's ident bytes.
func PoolNFTName(ident Ident) []byte {
	name := make([]byte, 0, len(cip67Label222)+len(ident))
	name = append(name, cip67Label222[:]...)
	name = append(name, ident...)
	return name
}
