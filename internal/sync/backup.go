package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
)

// Export fetches a full snapshot and serializes it as a JSON array of
// encrypted records. The backup is decryptable only with the session's
// derived key; the file itself never contains plaintext.
func (e *Engine) Export(ctx context.Context) ([]byte, error) {
	items, err := e.client.FetchItems(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(items, "", "  ")
}

// ImportReport pairs the records recovered from a backup with the per-record
// outcome. Records that failed to decrypt are reported, not fatal.
type ImportReport struct {
	Records []Record
	Details []model.ItemResult
}

// Import parses a backup file and decrypts each record with the session key.
// Only a malformed container rejects the whole file; individual decrypt
// failures appear in the report so the user can see exactly what was lost.
func (e *Engine) Import(data []byte) (*ImportReport, error) {
	var items []model.VaultItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: malformed backup container", errs.ErrDeserialization)
	}
	report := &ImportReport{
		Records: make([]Record, 0, len(items)),
		Details: make([]model.ItemResult, len(items)),
	}
	for i, it := range items {
		report.Details[i] = model.ItemResult{Item: it.ID}
		rec, err := e.session.DecryptItem(it)
		if err != nil {
			continue
		}
		report.Details[i].Success = true
		report.Records = append(report.Records, rec)
	}
	return report, nil
}
