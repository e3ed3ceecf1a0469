package config

import "github.com/spf13/viper"

type SecurityConfig interface {
	GetVerifyIDTokenSignature() bool
}

const verifyIDTokenSignatureKey = "security.verify_id_token_signature"

type Security struct {
	v *viper.Viper
}

var _ SecurityConfig = Security{}

// GetVerifyIDTokenSignature reports whether id token signatures are checked against the
// provider JWKS. Off by default: the token arrives directly from the token endpoint over TLS.
func (s Security) GetVerifyIDTokenSignature() bool {
	return s.v.GetBool(verifyIDTokenSignatureKey)
}
