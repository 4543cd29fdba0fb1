package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dyuri/cave3d/internal/model"
	"github.com/fxamacker/cbor/v2"
)

// WriteCBOR writes b as a CBOR document using core deterministic
// encoding, so identical bundles produce identical bytes
func WriteCBOR(w io.Writer, b *model.GeometryBundle) error {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return fmt.Errorf("cbor mode: %w", err)
	}
	if err := em.NewEncoder(w).Encode(NewDocument(b)); err != nil {
		return fmt.Errorf("encode cbor: %w", err)
	}
	return nil
}

// ReadCBOR decodes a document written by WriteCBOR
func ReadCBOR(r io.Reader) (Document, error) {
	var doc Document
	if err := cbor.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode cbor: %w", err)
	}
	return doc, nil
}

// WriteJSON writes b as a JSON document, indented when pretty is set
func WriteJSON(w io.Writer, b *model.GeometryBundle, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(NewDocument(b)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
