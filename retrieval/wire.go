package retrieval

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// RetrieveProcedure is the Connect procedure served by NewHandler.
const RetrieveProcedure = "/dbchat.retrieval.v1.RetrievalService/Retrieve"

// resultSchema describes a well-formed response payload.
const resultSchema = `{
  "type": "object",
  "required": ["query", "result"],
  "properties": {
    "query": {"type": "string", "pattern": "\\S"},
    "result": {"not": {"type": "null"}}
  }
}`

// toStruct converts r into a Struct. Values are normalized through JSON so
// driver types such as time.Time or int64 become wire-safe.
func toStruct(r Result) (*structpb.Struct, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return structpb.NewStruct(m)
}
