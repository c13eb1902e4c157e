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

// Package adminhttp serves a small read-only view of the reducer's latest
// snapshot -- health, pools, orders, and a per-pool order-validity report
// -- plus a resync trigger. The listener binds whatever address the caller
// passes to ListenAndServe; this package does not restrict it to loopback.
package adminhttp

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/blinklabs-io/sundaescoop/internal/common"
	"github.com/blinklabs-io/sundaescoop/internal/logging"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3/validation"
)

// Snapshotter is satisfied by *reducer.Reducer; kept as a narrow interface
// so this package never imports the reducer directly.
type Snapshotter interface {
	Latest() *sundaev3.State
}

// Server exposes the admin surface. Resync, if non-nil, is invoked by
// POST /resync-from-acropolis; the manager that owns the indexer pipeline
// supplies it so this package never has to know how a restart works.
type Server struct {
	state  Snapshotter
	resync func()
}

// New returns a Server reading snapshots from state. resync may be nil, in
// which case POST /resync-from-acropolis reports 503.
func New(state Snapshotter, resync func()) *Server {
	return &Server{state: state, resync: resync}
}

// RegisterHandlers registers every admin endpoint on mux.
func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/pools", s.handlePools)
	mux.HandleFunc("/orders", s.handleOrders)
	mux.HandleFunc("/pool/", s.handlePool)
	mux.HandleFunc("/resync-from-acropolis", s.handleResync)
}

// ListenAndServe starts the admin HTTP server on addr, which should be a
// loopback address per spec -- this package does not enforce that, since
// the caller's config is the source of truth for bind addresses.
func (s *Server) ListenAndServe(addr string) error {
	logger := logging.GetLogger()
	mux := http.NewServeMux()
	s.RegisterHandlers(mux)
	logger.Info("starting admin HTTP server", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, _ = w.Write([]byte("health"))
}

type poolView struct {
	Ident                string            `json:"ident"`
	Assets               [2]string         `json:"assets"`
	CirculatingLP        string            `json:"circulating_lp"`
	BidFeesPer10Thousand string            `json:"bid_fees_per_10_thousand"`
	AskFeesPer10Thousand string            `json:"ask_fees_per_10_thousand"`
	MarketOpen           string            `json:"market_open"`
	ProtocolFees         string            `json:"protocol_fees"`
	Value                map[string]string `json:"value"`
	Slot                 uint64            `json:"slot"`
}

func viewPool(p sundaev3.Pool) poolView {
	return poolView{
		Ident:                p.Datum.Ident.String(),
		Assets:               [2]string{p.Datum.Assets.Asset0.String(), p.Datum.Assets.Asset1.String()},
		CirculatingLP:        p.Datum.CirculatingLP.String(),
		BidFeesPer10Thousand: p.Datum.BidFeesPer10Thousand.String(),
		AskFeesPer10Thousand: p.Datum.AskFeesPer10Thousand.String(),
		MarketOpen:           p.Datum.MarketOpen.String(),
		ProtocolFees:         p.Datum.ProtocolFees.String(),
		Value:                viewValue(p.Value),
		Slot:                 p.Slot,
	}
}

func viewValue(v *common.Value) map[string]string {
	out := make(map[string]string)
	if v == nil {
		return out
	}
	for _, e := range v.Entries() {
		out[e.Class.String()] = e.Amount.String()
	}
	return out
}

func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	state := s.state.Latest()
	out := make(map[string]poolView, len(state.Pools))
	for identStr, p := range state.Pools {
		out[identStr] = viewPool(p)
	}
	writeJSON(w, out)
}

type orderView struct {
	Utxo        string            `json:"utxo"`
	Action      string            `json:"action"`
	ScoopFee    string            `json:"scoop_fee"`
	Destination string            `json:"destination"`
	Value       map[string]string `json:"value"`
	Slot        uint64            `json:"slot"`
}

func actionName(kind sundaev3.OrderKind) string {
	switch kind {
	case sundaev3.OrderStrategy:
		return "Strategy"
	case sundaev3.OrderSwap:
		return "Swap"
	case sundaev3.OrderDeposit:
		return "Deposit"
	case sundaev3.OrderWithdrawal:
		return "Withdrawal"
	case sundaev3.OrderDonation:
		return "Donation"
	case sundaev3.OrderRecord:
		return "Record"
	default:
		return "Unknown"
	}
}

func destinationName(d sundaev3.Destination) string {
	if d.Kind == sundaev3.DestinationSelf {
		return "Self"
	}
	return "Fixed"
}

func viewOrder(o sundaev3.LiveOrder) orderView {
	return orderView{
		Utxo:        o.Key,
		Action:      actionName(o.Datum.Action.Kind),
		ScoopFee:    o.Datum.ScoopFee.String(),
		Destination: destinationName(o.Datum.Destination),
		Value:       viewValue(o.Value),
		Slot:        o.Slot,
	}
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	state := s.state.Latest()
	out := make(map[string][]orderView)
	for _, o := range state.Orders {
		key := "null"
		if o.Datum.Ident.Valid {
			key = o.Datum.Ident.Value.String()
		}
		out[key] = append(out[key], viewOrder(o))
	}
	writeJSON(w, out)
}

type outOfRangeEntry struct {
	Order  string     `json:"order"`
	Reason [2]float64 `json:"reason"`
}

type unrecoverableEntry struct {
	Order  string `json:"order"`
	Reason string `json:"reason"`
}

type poolOrdersView struct {
	Valid         []string             `json:"valid"`
	OutOfRange    []outOfRangeEntry    `json:"out_of_range"`
	Unrecoverable []unrecoverableEntry `json:"unrecoverable"`
}

// handlePool answers GET /pool/{hex-ident}: every live order classified
// against this one pool, distinguishing in-range validity, an out-of-range
// swap price, and every other way an order can fail to clear.
func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identHex := strings.TrimPrefix(r.URL.Path, "/pool/")
	if identHex == "" {
		http.Error(w, "ident required", http.StatusBadRequest)
		return
	}
	if _, err := hex.DecodeString(identHex); err != nil {
		http.Error(w, "ident must be hex", http.StatusBadRequest)
		return
	}

	state := s.state.Latest()
	pool, ok := state.Pools[identHex]
	if !ok {
		http.Error(w, "pool not found", http.StatusNotFound)
		return
	}

	view := poolOrdersView{
		Valid:         []string{},
		OutOfRange:    []outOfRangeEntry{},
		Unrecoverable: []unrecoverableEntry{},
	}
	for _, o := range state.Orders {
		if err := validation.ValidateOrderValue(o.Datum, o.Value); err != nil {
			view.Unrecoverable = append(view.Unrecoverable, unrecoverableEntry{Order: o.Key, Reason: err.Error()})
			continue
		}
		if err := validation.ValidateOrderForPool(o.Datum, pool.Datum); err != nil {
			view.Unrecoverable = append(view.Unrecoverable, unrecoverableEntry{Order: o.Key, Reason: err.Error()})
			continue
		}
		if o.Datum.Action.Kind == sundaev3.OrderSwap {
			if err := validation.EstimateWhetherInRange(o.Datum.Action, pool.Datum, pool.Value); err != nil {
				if pe, ok := err.(*validation.PoolError); ok && pe.Reason == "out_of_range" {
					view.OutOfRange = append(view.OutOfRange, outOfRangeEntry{
						Order:  o.Key,
						Reason: [2]float64{pe.SwapPrice, pe.PoolPrice},
					})
					continue
				}
				view.Unrecoverable = append(view.Unrecoverable, unrecoverableEntry{Order: o.Key, Reason: err.Error()})
				continue
			}
		}
		view.Valid = append(view.Valid, o.Key)
	}
	writeJSON(w, view)
}

func (s *Server) handleResync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.resync == nil {
		http.Error(w, "resync not available", http.StatusServiceUnavailable)
		return
	}
	s.resync()
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
