package rediscache

import jsoniter "github.com/json-iterator/go"

type Codec[T any] interface {
	Marshal(T) ([]byte, error)
	Unmarshal([]byte, *T) error
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JsonCodec encodes values with json-iterator in standard library compatible mode.
type JsonCodec[T any] struct{}

func (c *JsonCodec[T]) Marshal(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JsonCodec[T]) Unmarshal(data []byte, v *T) error {
	return json.Unmarshal(data, v)
}
