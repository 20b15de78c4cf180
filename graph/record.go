package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/viant/afs"
)

// RecordStore persists the azidentity AuthenticationRecord for silent
// re-authentication across process restarts. The record lives at a single
// afs URL (file:// in production, mem:// in tests).
type RecordStore struct {
	fs  afs.Service
	url string
}

func NewRecordStore(url string) *RecordStore {
	return &RecordStore{fs: afs.New(), url: url}
}

// Load returns the stored record, or nil when the record is absent or
// unparseable. Corruption forces re-authentication rather than failing
// startup.
func (s *RecordStore) Load(ctx context.Context) *azidentity.AuthenticationRecord {
	if s == nil || s.url == "" {
		return nil
	}
	rc, err := s.fs.OpenURL(ctx, s.url)
	if err != nil || rc == nil {
		return nil
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if len(data) == 0 {
		return nil
	}
	var rec azidentity.AuthenticationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	if rec.ClientID == "" && rec.HomeAccountID == "" {
		return nil
	}
	return &rec
}

// Save overwrites the stored record. A fresh authentication always replaces
// the previous record in full.
func (s *RecordStore) Save(ctx context.Context, rec azidentity.AuthenticationRecord) error {
	if s == nil || s.url == "" {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.fs.Upload(ctx, s.url, 0o600, bytes.NewReader(data))
}
