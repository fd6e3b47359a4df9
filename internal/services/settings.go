package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/krarar/debt-manager/internal/model"
)

// GetSetting returns the raw value of key, or nil when it is unset.
func (s *LedgerService) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	st, err := s.settings.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}
	return st.Value, nil
}

func (s *LedgerService) SetSetting(ctx context.Context, key string, value any) error {
	if key == "" {
		return model.NewValidationError("setting key is required")
	}
	raw, ok := value.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(value); err != nil {
			return fmt.Errorf("encode setting %s: %w", key, err)
		}
	}
	if !json.Valid(raw) {
		return model.NewValidationError("setting %s is not valid JSON", key)
	}
	return s.settings.Put(ctx, &model.Setting{Key: key, Value: raw})
}

func (s *LedgerService) GetAllSettings(ctx context.Context) (map[string]json.RawMessage, error) {
	settings, err := s.settings.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(settings))
	for _, st := range settings {
		out[st.Key] = st.Value
	}
	return out, nil
}

// SyncEnabled reports the syncEnabled setting.
func (s *LedgerService) SyncEnabled(ctx context.Context) (bool, error) {
	st, err := s.settings.Get(ctx, model.SettingSyncEnabled)
	if err != nil {
		return false, err
	}
	return st.Bool(), nil
}
