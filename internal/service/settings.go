package service

import (
	"context"
	"strings"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/metabolic"
)

// SettingDefaultBodyFatMethod is the method used when a profile request names
// none.
const SettingDefaultBodyFatMethod = "default_body_fat_method"

var settingValidators = map[string]func(string) error{
	SettingDefaultBodyFatMethod: func(v string) error {
		_, err := metabolic.ParseBodyFatMethod(v)
		return err
	},
}

func (s *Service) SetSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	check, ok := settingValidators[key]
	if !ok {
		return apperr.Invalidf("unknown setting %q", key)
	}
	if err := check(value); err != nil {
		return err
	}
	return s.settings.SetSetting(ctx, key, value)
}

func (s *Service) Settings(ctx context.Context) (map[string]string, error) {
	return s.settings.ListSettings(ctx)
}
