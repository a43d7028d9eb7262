/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package srv

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/openbiosig/go-bitalino/pkg/command"
	"github.com/openbiosig/go-bitalino/pkg/config"
	"github.com/openbiosig/go-bitalino/pkg/device"
	"github.com/openbiosig/go-bitalino/pkg/log"
	"github.com/openbiosig/go-bitalino/pkg/transport"
)

// MaxReadCount bounds one read request so a bad client cannot block the
// daemon for minutes at low sampling rates.
const MaxReadCount = 10000

type VersionResponse struct {
	Version   string `json:"Version"`
	Bitalino2 bool   `json:"Bitalino2"`
}

type StateResponse struct {
	*device.DeviceState
	BatteryVoltage float64 `json:"BatteryVoltage"`
	BatteryLow     bool    `json:"BatteryLow"`
}

type StartRequest struct {
	Rate     int   `json:"Rate"`
	Channels []int `json:"Channels"`
}

// ApiServer exposes one device session over HTTP. The session state machine
// is single-owner, so every handler holds the mutex for the duration of its
// device interaction.
type ApiServer struct {
	*config.Config
	Router *mux.Router

	mu       sync.Mutex
	session  *device.Session
	registry *device.Registry
}

func NewApiServer(cfg *config.Config) (*ApiServer, error) {
	registry, err := device.OpenRegistry(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &ApiServer{
		Config:   cfg,
		registry: registry,
	}, nil
}

// Run connects to the configured device and serves the control API until
// the listener fails.
func (s *ApiServer) Run() error {
	session, err := device.Connect(s.DeviceConfig.Address, transport.Options{
		RfcommChannel: s.DeviceConfig.RfcommChannel,
		Baud:          s.DeviceConfig.Baud,
	})
	if err != nil {
		return err
	}
	s.session = session.WithRegistry(s.registry)
	defer func() {
		s.session.Disconnect()
		s.registry.Close()
	}()

	s.configureRouter()
	addr := fmt.Sprintf("%s:%d", s.ApiConfig.Address, s.ApiConfig.Port)
	log.Info("Starting API server: address: %s device: %s", addr, s.DeviceConfig.Address)
	httpServer := &http.Server{
		Handler: handlers.CombinedLoggingHandler(os.Stderr, s.Router),
		Addr:    addr,
	}
	return httpServer.ListenAndServe()
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/version", s.handleVersion()).Methods("GET")
	subRouter.HandleFunc("/state", s.handleState()).Methods("GET")
	subRouter.HandleFunc("/devices", s.handleDevices()).Methods("GET")
	subRouter.HandleFunc("/acquire/start", s.handleStart()).Methods("POST")
	subRouter.HandleFunc("/acquire/read/{count:[0-9]+}", s.handleRead()).Methods("GET")
	subRouter.HandleFunc("/acquire/stop", s.handleStop()).Methods("POST")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response: %s", err)
	}
}

// statusForError maps the driver error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch err.(type) {
	case command.ErrInvalidParameter:
		return http.StatusBadRequest
	case device.ErrInvalidState:
		return http.StatusConflict
	case device.ErrUnsupportedOperation:
		return http.StatusNotImplemented
	case transport.ErrTimeout:
		return http.StatusGatewayTimeout
	case transport.ErrConnection:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *ApiServer) handleVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		version, err := s.session.Version()
		if err != nil {
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		bitalino2, _ := s.session.IsBitalino2()
		writeJSON(w, &VersionResponse{Version: version, Bitalino2: bitalino2})
	}
}

func (s *ApiServer) handleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		state, err := s.session.State()
		if err != nil {
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		writeJSON(w, &StateResponse{
			DeviceState:    state,
			BatteryVoltage: state.BatteryVoltage(),
			BatteryLow:     state.BatteryLow(),
		})
	}
}

func (s *ApiServer) handleDevices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.registry.List()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, records)
	}
}

func (s *ApiServer) handleStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var startReq StartRequest
		if err := json.NewDecoder(r.Body).Decode(&startReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.session.Start(startReq.Rate, startReq.Channels); err != nil {
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *ApiServer) handleRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		count, err := strconv.Atoi(vars["count"])
		if err != nil || count < 1 || count > MaxReadCount {
			http.Error(w, fmt.Sprintf("count must be between 1 and %d", MaxReadCount), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		batch, err := s.session.ReadTimed(count)
		if err != nil {
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		writeJSON(w, batch)
	}
}

func (s *ApiServer) handleStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.session.Stop(); err != nil {
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
