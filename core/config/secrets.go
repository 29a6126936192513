package config

import (
	"context"
	"fmt"
	"strings"
)

// SecretGetter reads a named secret, e.g. from a parameter store.
type SecretGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ResolveToken fills the bot token from the secret store when only
// TokenSSMParam is configured. An explicit token always wins.
func ResolveToken(ctx context.Context, cfg *Config, getter SecretGetter) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	param := strings.TrimSpace(cfg.Telegram.TokenSSMParam)
	if strings.TrimSpace(cfg.Telegram.Token) != "" || param == "" {
		return nil
	}
	if getter == nil {
		return fmt.Errorf("telegram.token_ssm_param %q set but no secret store available", param)
	}
	token, err := getter.GetParameter(ctx, param)
	if err != nil {
		return fmt.Errorf("resolve bot token: %w", err)
	}
	cfg.Telegram.Token = strings.TrimSpace(token)
	return nil
}
