package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// OpType is the closed set of outbox operations.
type OpType string

const (
	OpCreateDebtor      OpType = "CREATE_DEBTOR"
	OpUpdateDebtor      OpType = "UPDATE_DEBTOR"
	OpDeleteDebtor      OpType = "DELETE_DEBTOR"
	OpCreateTransaction OpType = "CREATE_TRANSACTION"
	OpUpdateTransaction OpType = "UPDATE_TRANSACTION"
	OpDeleteTransaction OpType = "DELETE_TRANSACTION"
)

var opTypes = map[OpType]struct{}{
	OpCreateDebtor:      {},
	OpUpdateDebtor:      {},
	OpDeleteDebtor:      {},
	OpCreateTransaction: {},
	OpUpdateTransaction: {},
	OpDeleteTransaction: {},
}

func (o OpType) Valid() bool {
	_, ok := opTypes[o]
	return ok
}

func (o OpType) IsDelete() bool {
	return o == OpDeleteDebtor || o == OpDeleteTransaction
}

func (o *OpType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("op type: %w", err)
	}
	if !OpType(s).Valid() {
		return NewValidationError("invalid op type %q", s)
	}
	*o = OpType(s)
	return nil
}

// SyncQueueItem is one pending mutation awaiting upload.
type SyncQueueItem struct {
	ID       string          `json:"id"`
	OpType   OpType          `json:"opType"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt time.Time       `json:"queuedAt"`
	Retries  int             `json:"retries"`
}

// DeletePayload is the outbox payload of delete operations.
type DeletePayload struct {
	ID string `json:"id"`
}
