package rmq

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// Wire-protocol constants preserved for broker compatibility: LanguageKey
// is the literal the broker keys client-language behavior off of. Do not
// change it unless coordinating a new client identifier with the broker
// side.
const (
	LanguageKey     = "JAVA"
	ProtocolVersion = "2.0.0"
	ClientVersion   = "1.0.0"

	headerTenantID     = "x-mq-tenant-id"
	headerNamespace    = "x-mq-namespace"
	headerLanguage     = "x-mq-language"
	headerProtoVersion = "x-mq-protocol"
	headerClientVer    = "x-mq-client-version"
	headerRequestID    = "x-mq-request-id"
	headerClientID     = "x-mq-client-id"
	headerDateTime     = "x-mq-date-time"
	headerSessionToken = "x-mq-session-token"
	headerAuthorization = "authorization"

	dateTimeLayout = "20060102T150405Z"
)

// sign builds the per-request authentication metadata from config,
// credentials, and the clock. A missing credentials provider or blank
// key pair yields unsigned metadata, not an error.
func sign(cfg *Config, now time.Time) (map[string]string, error) {
	reqID, err := newRequestID()
	if err != nil {
		return nil, newErr(KindSigningFailure, "sign", err)
	}

	md := map[string]string{
		headerLanguage:     LanguageKey,
		headerProtoVersion: ProtocolVersion,
		headerClientVer:    ClientVersion,
		headerRequestID:    reqID,
		headerDateTime:     now.UTC().Format(dateTimeLayout),
	}
	if cfg.ClientID != "" {
		md[headerClientID] = cfg.ClientID
	}
	if cfg.TenantID != "" {
		md[headerTenantID] = cfg.TenantID
	}
	if cfg.Namespace != "" {
		md[headerNamespace] = cfg.Namespace
	}

	if cfg.CredentialsProvider == nil {
		return md, nil
	}
	creds, err := cfg.CredentialsProvider.GetCredentials()
	if err != nil {
		return nil, newErr(KindSigningFailure, "sign", err)
	}
	if creds.Empty() {
		return md, nil
	}
	if creds.SessionToken != "" {
		md[headerSessionToken] = creds.SessionToken
	}

	sig, err := hmacSHA1Hex(md[headerDateTime], creds.AccessSecret)
	if err != nil {
		return nil, newErr(KindSigningFailure, "sign", err)
	}
	md[headerAuthorization] = fmt.Sprintf(
		"MQv2-HMAC-SHA1 Credential=%s/%s/%s, SignedHeaders=x-mq-date-time, Signature=%s",
		creds.AccessKey, cfg.RegionID, cfg.ServiceName, sig,
	)
	return md, nil
}

// hmacSHA1Hex is the bit-exact signing primitive: HMAC-SHA1 of the
// timestamp string keyed by the access secret, hex-lowercase encoded.
func hmacSHA1Hex(message, secret string) (string, error) {
	mac := hmac.New(sha1.New, []byte(secret))
	if _, err := mac.Write([]byte(message)); err != nil {
		return "", err
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}
