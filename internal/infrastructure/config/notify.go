package config

// ChatConfig holds the Telegram bot credential.
type ChatConfig struct {
	BotToken string `mapstructure:"bot_token" validate:"required"`
}

// PushConfig holds the VAPID key pair for web push. Push is disabled when
// the keys are empty.
type PushConfig struct {
	PublicKey  string `mapstructure:"public_key"`
	PrivateKey string `mapstructure:"private_key"`
	// VAPID subject, a mailto: or https: URL identifying the sender
	Subject string `mapstructure:"subject"`
}

func (c *PushConfig) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}
