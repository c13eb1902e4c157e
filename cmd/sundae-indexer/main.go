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

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/blinklabs-io/sundaescoop/internal/adminhttp"
	"github.com/blinklabs-io/sundaescoop/internal/config"
	"github.com/blinklabs-io/sundaescoop/internal/indexer"
	"github.com/blinklabs-io/sundaescoop/internal/logging"
	"github.com/blinklabs-io/sundaescoop/internal/reducer"
	"github.com/blinklabs-io/sundaescoop/internal/scooplog"
	"github.com/blinklabs-io/sundaescoop/internal/storage"
)

const (
	programName    = "sundae-indexer"
	restartBackoff = 5 * time.Second
)

var cmdlineFlags struct {
	configFile   string
	protocolFile string
}

// manager owns the currently-running Indexer and restarts it, with backoff,
// whenever the pipeline reports a fatal error.
type manager struct {
	dao     *storage.DAO
	red     *reducer.Reducer
	network string
	address string
}

func newManager(dao *storage.DAO, red *reducer.Reducer, network, address string) *manager {
	return &manager{dao: dao, red: red, network: network, address: address}
}

// run starts an Indexer at start and supervises it for the life of the
// process, restarting from the persisted cursor whenever the pipeline
// reports a fatal error.
func (m *manager) run(start indexer.Point) {
	logger := logging.GetLogger()
	for {
		idx := indexer.New(m.red, m.dao, m.network, m.address)
		if err := idx.Start(start); err != nil {
			logger.Error("indexer failed to start", "error", err)
			idx.Stop()
			time.Sleep(restartBackoff)
			continue
		}

		err := <-idx.Done()
		idx.Stop()
		if err == nil {
			return
		}
		logger.Error("indexer pipeline exited, restarting", "error", err, "backoff", restartBackoff)
		time.Sleep(restartBackoff)
	}
}

// resyncFromOrigin clears the persisted cursor and exits the process for
// POST /resync-from-acropolis. The adder pipeline this binary drives has no
// in-process cancellation primitive, so forcing a resync mid-sync requires a
// fresh process; the deployment's process supervisor (systemd, a container
// orchestrator's restart policy) is expected to relaunch the binary with the
// same sync-from-origin argument it was started with.
func (m *manager) resyncFromOrigin() {
	logger := logging.GetLogger()
	if err := m.dao.SaveCursor(map[string][]byte{}); err != nil {
		logger.Error("failed to clear cursor for resync", "error", err)
		return
	}
	logger.Warn("resync requested, clearing cursor and exiting for supervisor restart")
	os.Exit(0)
}

func main() {
	flag.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
	flag.StringVar(&cmdlineFlags.protocolFile, "protocol", "", "path to protocol script-hash/NFT config file to load")

	if len(os.Args) < 2 {
		fmt.Println("usage: sundae-indexer [sync-from-origin | sync-from-point] [flags]")
		os.Exit(1)
	}

	var start indexer.Point
	switch os.Args[1] {
	case "sync-from-origin":
		start = indexer.Point{Origin: true}
		flag.CommandLine.Parse(os.Args[2:])
	case "sync-from-point":
		fs := flag.NewFlagSet("sync-from-point", flag.ExitOnError)
		var slot uint64
		var blockHash string
		fs.Uint64Var(&slot, "slot", 0, "slot number to intersect at")
		fs.StringVar(&blockHash, "block-hash", "", "hex-encoded block hash to intersect at")
		fs.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
		fs.StringVar(&cmdlineFlags.protocolFile, "protocol", "", "path to protocol script-hash/NFT config file to load")
		fs.Parse(os.Args[2:])
		if blockHash == "" {
			fmt.Println("ERROR: sync-from-point requires -block-hash")
			os.Exit(1)
		}
		if _, err := hex.DecodeString(blockHash); err != nil {
			fmt.Printf("ERROR: -block-hash must be hex: %s\n", err)
			os.Exit(1)
		}
		start = indexer.Point{Slot: slot, Hash: blockHash}
	default:
		fmt.Printf("ERROR: unknown subcommand %q\n", os.Args[1])
		os.Exit(1)
	}

	if cmdlineFlags.protocolFile == "" {
		fmt.Println("ERROR: -protocol is required")
		os.Exit(1)
	}

	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	logging.Configure()
	logger := logging.GetLogger()

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		logger.Warn("failed to set GOMAXPROCS", "error", err)
	}

	protocolCfg, err := reducer.LoadProtocolConfig(cmdlineFlags.protocolFile)
	if err != nil {
		logger.Error("failed to load protocol config", "error", err)
		os.Exit(1)
	}

	dao, err := storage.Open(cfg.Storage.Directory)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer dao.Close()

	red := reducer.New(protocolCfg, dao, cfg.Indexer.RollbackLimit)

	logDir := cfg.ScoopLog.Directory
	coalesce := time.Duration(cfg.ScoopLog.CoalesceMillis) * time.Millisecond
	scoopConsumer := scooplog.New(red.Changes(), logDir, coalesce)
	go scoopConsumer.Run()
	defer scoopConsumer.Stop()

	mgr := newManager(dao, red, cfg.Network, cfg.Indexer.Address)

	admin := adminhttp.New(red, mgr.resyncFromOrigin)
	adminAddr := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)
	go func() {
		if err := admin.ListenAndServe(adminAddr); err != nil {
			logger.Error("admin HTTP server exited", "error", err)
		}
	}()

	if cfg.Debug.ListenPort > 0 {
		debugAddr := fmt.Sprintf("%s:%d", cfg.Debug.ListenAddress, cfg.Debug.ListenPort)
		logger.Info("starting debug listener", "addr", debugAddr)
		go func() {
			if err := http.ListenAndServe(debugAddr, nil); err != nil {
				logger.Error("debug listener exited", "error", err)
			}
		}()
	}

	mgr.run(start)
}
