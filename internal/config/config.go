package config

type Config interface {
	EnvConfig
	CredentialConfig
	BackendConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetWebhookSecret() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Credentials
	Backends
}

func New() Config {
	return mainConfig{}
}
