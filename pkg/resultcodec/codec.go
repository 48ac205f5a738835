// Package resultcodec serializes CalculationResults for the persistence
// and presentation collaborators. JSON is the default interchange format;
// MessagePack is offered for compact storage.
package resultcodec

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hydrograph/recharge/pkg/recharge"
)

// Format names a supported encoding.
type Format string

const (
	JSON    Format = "json"
	MsgPack Format = "msgpack"
)

// Encode renders a result in the requested format.
func Encode(result *recharge.CalculationResult, format Format) ([]byte, error) {
	switch format {
	case JSON, "":
		return json.Marshal(result)
	case MsgPack:
		return msgpack.Marshal(result)
	default:
		return nil, fmt.Errorf("unknown result format %q", format)
	}
}

// EncodeIndented renders indented JSON for human-facing export.
func EncodeIndented(result *recharge.CalculationResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// Decode rehydrates a result previously produced by Encode.
func Decode(data []byte, format Format) (*recharge.CalculationResult, error) {
	var result recharge.CalculationResult
	switch format {
	case JSON, "":
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decode json result: %w", err)
		}
	case MsgPack:
		if err := msgpack.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decode msgpack result: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown result format %q", format)
	}
	return &result, nil
}
