package formats

import (
	"bytes"
	"encoding/json"
)

// lenientInt decodes an integer field the way the exporters wrote it:
// integers, integral floats ("1.0") and numeric strings ("2"). Any other
// value, null included, leaves it unset.
type lenientInt struct {
	v   int
	set bool
}

func (n *lenientInt) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	raw, err := decodeValue(dec)
	if err != nil {
		return err
	}
	n.v, n.set = toInt(raw)
	return nil
}

// ptr returns the value, or nil when unset.
func (n lenientInt) ptr() *int {
	if !n.set {
		return nil
	}
	v := n.v
	return &v
}
