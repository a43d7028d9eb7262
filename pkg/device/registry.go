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

package device

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/openbiosig/go-bitalino/pkg/log"
)

const (
	DevicesBucketName = "devices"
)

// DeviceRecord is what the registry remembers about a device after a
// successful version probe. No acquired sample data is ever stored.
type DeviceRecord struct {
	Address   string    `json:"Address"`
	Version   string    `json:"Version"`
	Bitalino2 bool      `json:"Bitalino2"`
	LastSeen  time.Time `json:"LastSeen"`
}

// Registry is a small bbolt database of devices this host has talked to,
// keyed by address.
type Registry struct {
	DB *bbolt.DB
}

func OpenRegistry(path string) (*Registry, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(DevicesBucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Registry{DB: db}, nil
}

func (r *Registry) Close() {
	r.DB.Close()
}

func (r *Registry) Put(record *DeviceRecord) error {
	log.Debug("Recording device: %s version: %s", record.Address, record.Version)
	return r.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(DevicesBucketName))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", DevicesBucketName)
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return b.Put([]byte(record.Address), data)
	})
}

func (r *Registry) Get(address string) (*DeviceRecord, error) {
	record := &DeviceRecord{}
	if err := r.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(DevicesBucketName))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", DevicesBucketName)
		}
		data := b.Get([]byte(address))
		if data == nil {
			return fmt.Errorf("Device not found: %s", address)
		}
		return json.Unmarshal(data, record)
	}); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *Registry) List() ([]*DeviceRecord, error) {
	var records []*DeviceRecord
	if err := r.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(DevicesBucketName))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", DevicesBucketName)
		}
		return b.ForEach(func(k, v []byte) error {
			record := &DeviceRecord{}
			if err := json.Unmarshal(v, record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return records, nil
}
