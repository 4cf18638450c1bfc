package rmq

import (
	"time"

	"github.com/google/uuid"
)

// Credentials is one access-key/secret pair, optionally with a session
// token. It is the shape a CredentialsProvider hands back on each sign().
type Credentials struct {
	AccessKey    string
	AccessSecret string
	SessionToken string
}

// Empty reports whether either half of the key pair is blank, in which
// case the signer must produce unsigned metadata rather than fail.
func (c Credentials) Empty() bool {
	return c.AccessKey == "" || c.AccessSecret == ""
}

// CredentialsProvider is the external collaborator the signer asks for
// keys on every sign(); implementations are not part of this core.
type CredentialsProvider interface {
	GetCredentials() (Credentials, error)
}

// StaticCredentialsProvider is the trivial in-memory implementation used
// by tests and simple embedders.
type StaticCredentialsProvider struct {
	Credentials Credentials
}

func (p StaticCredentialsProvider) GetCredentials() (Credentials, error) {
	return p.Credentials, nil
}

// Config is the recognized configuration surface. It is not a file
// format; callers build it directly.
type Config struct {
	ARN   string // tenant/auth realm identity; keys the ClientInstance registry
	Group string

	// ClientID identifies this process to the broker across heartbeats
	// and signed requests. Left blank, setDefaults generates one.
	ClientID    string
	Namespace   string
	RegionID    string
	ServiceName string
	TenantID    string

	CredentialsProvider CredentialsProvider

	IOTimeout               time.Duration
	SendMessageTimeout      time.Duration
	MaxAttemptTimes         int
	MessageCompressionLevel int
	MessageTracingEnabled   bool

	// IsolationProbeInterval governs how often isolated endpoints are
	// retried. Zero selects the 30s default; a negative value disables
	// the prober.
	IsolationProbeInterval time.Duration

	Logger    Logger
	Hooks     []Hook
	Transport Transport

	// Endpoints is the seed broker address(es) used to dial the
	// transport when Transport is nil.
	Endpoints []string
}

const (
	defaultIOTimeout              = 3 * time.Second
	defaultSendMessageTimeout     = 10 * time.Second
	defaultMaxAttemptTimes        = 3
	defaultMessageCompression     = 5
	defaultIsolationProbeInterval = 30 * time.Second
	compressionThresholdBytes     = 1024 * 1024 * 4
)

func (c *Config) setDefaults() {
	if c.IOTimeout == 0 {
		c.IOTimeout = defaultIOTimeout
	}
	if c.SendMessageTimeout == 0 {
		c.SendMessageTimeout = defaultSendMessageTimeout
	}
	if c.MaxAttemptTimes == 0 {
		c.MaxAttemptTimes = defaultMaxAttemptTimes
	}
	if c.MessageCompressionLevel == 0 {
		c.MessageCompressionLevel = defaultMessageCompression
	}
	if c.IsolationProbeInterval == 0 {
		c.IsolationProbeInterval = defaultIsolationProbeInterval
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.ClientID == "" {
		c.ClientID = uuid.NewString()
	}
}

// identity is the key the client instance registry shares on: the "arn".
func (c *Config) identity() string {
	return c.ARN
}
