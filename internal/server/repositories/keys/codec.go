package keys

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// Records in blob-style backends (redis, S3) are CBOR with integer keys.
var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func encodeRecord(rec *models.KeyPairRecord) ([]byte, error) {
	b, err := encMode.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding key pair record: %w", err)
	}
	return b, nil
}

func decodeRecord(b []byte) (*models.KeyPairRecord, error) {
	rec := &models.KeyPairRecord{}
	if err := cbor.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("decoding key pair record: %w", err)
	}
	return rec, nil
}
