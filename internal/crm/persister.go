package crm

import "context"

// Persister stores whole-collection snapshots keyed by (userID, collection).
// Save overwrites the previous blob; Load reports found=false when nothing
// was ever saved.
type Persister interface {
	Save(ctx context.Context, userID, collection string, payload []byte) error
	Load(ctx context.Context, userID, collection string) (payload []byte, found bool, err error)
}
