package service

import "encoding/json"

// Optional is a request field that remembers whether it was sent. A field
// sent as null is Set with a nil Value.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a sent field holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Or returns the received value, or current when the field was not sent.
func (o Optional[T]) Or(current *T) *T {
	if !o.Set {
		return current
	}
	return o.Value
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
