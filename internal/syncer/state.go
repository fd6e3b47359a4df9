package syncer

import (
	"encoding/json"
	"fmt"
)

// State is the phase of the current sync cycle.
type State int32

const (
	StateIdle State = iota
	StateUploading
	StateDownloading
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StateDownloading:
		return "downloading"
	case StateReconciling:
		return "reconciling"
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for _, candidate := range []State{StateIdle, StateUploading, StateDownloading, StateReconciling} {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown sync state %q", name)
}
