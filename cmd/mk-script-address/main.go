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

// Command mk-script-address hashes a compiled Plutus validator and prints
// its script hash and address, for populating the pool/order/settings
// script-hash fields of a protocol config file.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/blinklabs-io/gouroboros/ledger"
	"golang.org/x/crypto/blake2b"
)

var cmdlineFlags struct {
	network       string
	scriptData    string
	scriptPath    string
	plutusVersion int
}

func main() {
	flag.StringVar(&cmdlineFlags.scriptData, "script-data", "", "hex-encoded script data")
	flag.StringVar(&cmdlineFlags.scriptPath, "script-path", "", "path to script file to load")
	flag.StringVar(&cmdlineFlags.network, "network", "mainnet", "named network to generate script address for")
	flag.IntVar(&cmdlineFlags.plutusVersion, "plutus-version", 2, "plutus version of script")
	flag.Parse()

	if (cmdlineFlags.scriptPath == "" && cmdlineFlags.scriptData == "") || cmdlineFlags.network == "" {
		fmt.Printf("ERROR: you must specify the network and script\n")
		os.Exit(1)
	}

	network := ouroboros.NetworkByName(cmdlineFlags.network)
	if network == ouroboros.NetworkInvalid {
		fmt.Printf("ERROR: unknown named network: %s\n", network)
		os.Exit(1)
	}

	var scriptData []byte
	var err error
	if cmdlineFlags.scriptData != "" {
		scriptData, err = hex.DecodeString(cmdlineFlags.scriptData)
	} else {
		scriptData, err = os.ReadFile(cmdlineFlags.scriptPath)
	}
	if err != nil {
		fmt.Printf("ERROR: failed to read script file: %s\n", err)
		os.Exit(1)
	}

	hash, _ := blake2b.New(28, nil)
	hash.Write([]byte{byte(cmdlineFlags.plutusVersion)})
	hash.Write(scriptData[:])
	scriptHash := hash.Sum(nil)

	address, _ := ledger.NewAddressFromParts(
		ledger.AddressTypeScriptNone,
		network.Id,
		scriptHash,
		nil,
	)

	fmt.Printf("Script hash:    %x\n", scriptHash)
	fmt.Printf("Script address: %s\n", address.String())
}
