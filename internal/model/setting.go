package model

import (
	"encoding/json"
	"slices"
)

// Settings keys read by the core.
const (
	SettingSyncEnabled   = "syncEnabled"
	SettingSyncOnStartup = "syncOnStartup"
	SettingLastSyncAt    = "lastSyncAt"
	SettingRemoteUserID  = "remoteUserId"
)

// InstallationSettings belong to one installation; imports never carry
// them across devices.
var InstallationSettings = []string{SettingRemoteUserID, SettingLastSyncAt}

func IsInstallationSetting(key string) bool {
	return slices.Contains(InstallationSettings, key)
}

// Setting is one flat key/value pair. Value is kept as raw JSON so any
// scalar or object written by a client round-trips untouched.
type Setting struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Bool reports whether the setting holds JSON true. Missing or non-boolean
// values read as false.
func (s *Setting) Bool() bool {
	if s == nil {
		return false
	}
	var b bool
	if err := json.Unmarshal(s.Value, &b); err != nil {
		return false
	}
	return b
}
