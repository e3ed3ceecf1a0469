package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appNameKey     = "app_name"
	envKey         = "env"
	logLevelKey    = "log.level"
	logFormatKey   = "log.format"
	httpTimeoutKey = "http.timeout"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameKey)
}

func (e EnvVars) GetEnv() string {
	env := strings.ToUpper(e.v.GetString(envKey))
	if env == "" {
		return "DEV"
	}
	return env
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(logLevelKey)
}

// GetLogFormat returns "console" or "json"
func (e EnvVars) GetLogFormat() string {
	return e.v.GetString(logFormatKey)
}

// GetHTTPTimeout bounds each individual HTTP call to the provider. It does not apply to
// the time a user spends on an authorization surface.
func (e EnvVars) GetHTTPTimeout() time.Duration {
	return e.v.GetDuration(httpTimeoutKey)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(appNameKey, "Launcher Auth")
	v.SetDefault(envKey, "DEV")
	v.SetDefault(logLevelKey, "info")
	v.SetDefault(logFormatKey, "console")
	v.SetDefault(httpTimeoutKey, 30*time.Second)

	v.SetDefault(issuerKey, defaultIssuer)
	v.SetDefault(launcherClientIDKey, defaultLauncherClientID)
	v.SetDefault(launcherRedirectURIKey, defaultLauncherRedirectURI)
	v.SetDefault(launcherScopesKey, defaultLauncherScopes)
	v.SetDefault(sessionClientIDKey, defaultSessionClientID)
	v.SetDefault(sessionRedirectURIKey, defaultSessionRedirectURI)
	v.SetDefault(sessionScopesKey, defaultSessionScopes)
	v.SetDefault(gameSessionURLKey, defaultGameSessionURL)
	v.SetDefault(apiURLKey, defaultAPIURL)

	v.SetDefault(verifyIDTokenSignatureKey, false)
}
