package tdauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rusq/encio"
)

// credsStorage persists the API credentials (obtainable at
// https://my.telegram.org/apps) encrypted at rest, so that the user is not
// prompted for them on every run.
type credsStorage struct {
	filename string
}

// apiCreds is the structure of data in the storage.
type apiCreds struct {
	ID   int    `json:"api_id,omitempty"`
	Hash string `json:"api_hash,omitempty"`
}

func (c apiCreds) IsEmpty() bool {
	return c.ID == 0 || c.Hash == ""
}

// String redacts the hash, credentials should never end up in logs.
func (c apiCreds) String() string {
	return fmt.Sprintf("apiCreds{ID: %d, Hash: <redacted>}", c.ID)
}

// IsAvailable returns true if the credentials filename is set.
func (cs credsStorage) IsAvailable() bool {
	return cs.filename != ""
}

func (cs credsStorage) Save(c apiCreds) error {
	if c.IsEmpty() {
		return errors.New("refusing to save empty credentials")
	}
	f, err := encio.Create(cs.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return cs.write(f, c)
}

func (cs credsStorage) write(w io.Writer, c apiCreds) error {
	return json.NewEncoder(w).Encode(c)
}

func (cs credsStorage) Load() (apiCreds, error) {
	f, err := encio.Open(cs.filename)
	if err != nil {
		return apiCreds{}, err
	}
	defer f.Close()

	return cs.read(f)
}

func (cs credsStorage) read(r io.Reader) (apiCreds, error) {
	var c apiCreds
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return apiCreds{}, err
	}
	return c, nil
}
