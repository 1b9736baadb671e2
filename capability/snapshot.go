package capability

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/teranos/skosprobe/errors"
)

// LoadSnapshot decodes a JSON capability snapshot and validates it.
// Unknown fields are rejected so a typo never silently reads as Unknown.
func LoadSnapshot(r io.Reader) (*AnalysisResult, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var result AnalysisResult
	if err := dec.Decode(&result); err != nil {
		return nil, errors.WithSecondaryError(
			errors.Wrapf(errors.ErrInvalidSnapshot, "decode capability snapshot: %s", err), err)
	}
	if result.SchemeURIs == nil {
		result.SchemeURIs = []string{}
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoadSnapshotFile reads a snapshot from path.
func LoadSnapshotFile(path string) (*AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open snapshot %s", path)
	}
	defer f.Close()
	result, err := LoadSnapshot(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load snapshot %s", path)
	}
	return result, nil
}

// WriteSnapshot validates a and writes it as indented JSON.
func WriteSnapshot(w io.Writer, a *AnalysisResult) error {
	if err := a.Validate(); err != nil {
		return err
	}
	data, err := MarshalSnapshot(a)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "write capability snapshot")
}

// MarshalSnapshot encodes a without validating it.
func MarshalSnapshot(a *AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return nil, errors.Wrap(err, "encode capability snapshot")
	}
	return buf.Bytes(), nil
}
