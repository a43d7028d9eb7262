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
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/openbiosig/go-bitalino/pkg/config"
	"github.com/openbiosig/go-bitalino/pkg/device"
)

// ApiClient talks to a running daemon.
type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.ApiConfig.Address, cfg.ApiConfig.Port),
	}
}

func (c *ApiClient) Version() (*VersionResponse, error) {
	r, err := req.Get(fmt.Sprintf("%s/version", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	version := &VersionResponse{}
	if err = r.ToJSON(version); err != nil {
		return nil, err
	}
	return version, nil
}

func (c *ApiClient) State() (*StateResponse, error) {
	r, err := req.Get(fmt.Sprintf("%s/state", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	state := &StateResponse{}
	if err = r.ToJSON(state); err != nil {
		return nil, err
	}
	return state, nil
}

func (c *ApiClient) Devices() ([]*device.DeviceRecord, error) {
	r, err := req.Get(fmt.Sprintf("%s/devices", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	var records []*device.DeviceRecord
	if err = r.ToJSON(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *ApiClient) StartAcquisition(rate int, channels []int) error {
	body := &StartRequest{Rate: rate, Channels: channels}
	r, err := req.Post(fmt.Sprintf("%s/acquire/start", c.ApiPrefix), req.BodyJSON(body))
	if err != nil {
		return err
	}
	if code := r.Response().StatusCode; code != 200 && code != 204 {
		return errors.New(r.Response().Status)
	}
	return nil
}

func (c *ApiClient) ReadBatch(count int) (*device.FrameBatch, error) {
	r, err := req.Get(fmt.Sprintf("%s/acquire/read/%d", c.ApiPrefix, count))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	batch := &device.FrameBatch{}
	if err = r.ToJSON(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (c *ApiClient) StopAcquisition() error {
	r, err := req.Post(fmt.Sprintf("%s/acquire/stop", c.ApiPrefix))
	if err != nil {
		return err
	}
	if code := r.Response().StatusCode; code != 200 && code != 204 {
		return errors.New(r.Response().Status)
	}
	return nil
}
