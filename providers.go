package cloudsdk

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	openaisdk "github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/manishiitg/cloud-sdk-go/interfaces"
	"github.com/manishiitg/cloud-sdk-go/internal/recorder"
	anthropicclient "github.com/manishiitg/cloud-sdk-go/pkg/clients/anthropic"
	"github.com/manishiitg/cloud-sdk-go/pkg/clients/azureblob"
	bedrockclient "github.com/manishiitg/cloud-sdk-go/pkg/clients/bedrock"
	openaiclient "github.com/manishiitg/cloud-sdk-go/pkg/clients/openai"
	vertexclient "github.com/manishiitg/cloud-sdk-go/pkg/clients/vertex"
	"github.com/manishiitg/cloud-sdk-go/pkg/pipeline"
	"github.com/manishiitg/cloud-sdk-go/pkg/playback"
)

// Service represents the available cloud services
type Service string

const (
	ServiceOpenAI    Service = "openai"
	ServiceAnthropic Service = "anthropic"
	ServiceBedrock   Service = "bedrock"
	ServiceVertex    Service = "vertex"
	ServiceAzureBlob Service = "azureblob"
)

// Mode selects what the terminal stage of the pipeline does.
type Mode string

const (
	// ModeLive sends requests over the network.
	ModeLive Mode = "live"
	// ModeRecord sends requests over the network and writes fixtures.
	ModeRecord Mode = "record"
	// ModePlayback answers requests from fixtures only.
	ModePlayback Mode = "playback"
)

// Config holds configuration for client initialization
type Config struct {
	Service Service
	Mode    Mode
	// Transaction names the fixture sequence used in record and playback
	// mode. When empty it is taken from Context (see WithTransactionName).
	Transaction string
	// RecordingsDir is the root of all transactions (default: testdata/recordings)
	RecordingsDir string
	// ExcludedHeaders extends the default and per-service exclusion sets.
	ExcludedHeaders []string
	// LiveTransport is used for live and record mode (default: http.DefaultTransport)
	LiveTransport http.RoundTripper

	BaseURL  string
	APIKey   string
	Region   string
	Project  string
	Location string

	// Logger for structured logging
	Logger       interfaces.Logger
	EventEmitter interfaces.EventEmitter
	// Context for client initialization (optional, uses background if not provided)
	Context context.Context
}

// Session is the HTTP pipeline built for one Config. In record and playback
// mode it owns the transaction cursor.
type Session struct {
	config   Config
	pipeline *pipeline.Pipeline
	tx       *recorder.Transaction
	playback *playback.Policy
	recorder *playback.Recorder
}

// NewSession builds the pipeline described by config.
func NewSession(config Config) (*Session, error) {
	if config.Mode == "" {
		config.Mode = ModeLive
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	logger := config.Logger
	if logger == nil {
		logger = &noopLoggerImpl{}
	}

	session := &Session{config: config}
	policies := []pipeline.Policy{pipeline.Logging(logger)}

	switch config.Mode {
	case ModeLive:
		policies = append(policies, pipeline.Transport(config.LiveTransport))
	case ModeRecord, ModePlayback:
		name := config.Transaction
		if name == "" {
			name, _ = recorder.TransactionNameFromContext(config.Context)
		}
		if name == "" {
			return nil, fmt.Errorf("a transaction name is required in %s mode", config.Mode)
		}

		tx, err := recorder.NewStore(recorder.Config{BaseDir: config.RecordingsDir}).Open(name)
		if err != nil {
			return nil, err
		}
		session.tx = tx

		excluded := append(VolatileHeaders(config.Service), config.ExcludedHeaders...)
		opts := []playback.Option{
			playback.WithExcludedHeaders(excluded...),
			playback.WithLogger(logger),
		}
		if config.EventEmitter != nil {
			opts = append(opts, playback.WithEventEmitter(config.EventEmitter))
		}

		if config.Mode == ModeRecord {
			session.recorder = playback.NewRecorder(tx, opts...)
			policies = append(policies, session.recorder, pipeline.Transport(config.LiveTransport))
		} else {
			session.playback = playback.New(tx, opts...)
			policies = append(policies, session.playback)
		}
	default:
		return nil, fmt.Errorf("unsupported mode: %s", config.Mode)
	}

	session.pipeline = pipeline.New(policies...)
	logger.Infof("Initialized %s session - service: %s, transaction: %s", config.Mode, config.Service, session.TransactionName())
	return session, nil
}

// Mode returns the session mode.
func (s *Session) Mode() Mode {
	return s.config.Mode
}

// TransactionName returns the transaction name, or "" in live mode.
func (s *Session) TransactionName() string {
	if s.tx == nil {
		return ""
	}
	return s.tx.Name()
}

// HTTPClient returns an http.Client that sends through the session pipeline.
func (s *Session) HTTPClient() *http.Client {
	return s.pipeline.HTTPClient()
}

// Transporter returns the pipeline as an azcore transport.
func (s *Session) Transporter() policy.Transporter {
	return s.pipeline
}

// Step returns the current transaction step, or 0 in live mode.
func (s *Session) Step() int {
	switch {
	case s.playback != nil:
		return s.playback.Number()
	case s.recorder != nil:
		return s.recorder.Number()
	default:
		return 0
	}
}

// Verify fails in playback mode when recorded steps were not replayed.
func (s *Session) Verify() error {
	if s.playback == nil {
		return nil
	}
	return s.playback.Verify()
}

// VolatileHeaders returns the headers a service's SDK varies per call.
func VolatileHeaders(service Service) []string {
	var headers []string
	switch service {
	case ServiceOpenAI:
		headers = openaiclient.VolatileHeaders
	case ServiceAnthropic:
		headers = anthropicclient.VolatileHeaders
	case ServiceBedrock:
		headers = bedrockclient.VolatileHeaders
	case ServiceVertex:
		headers = vertexclient.VolatileHeaders
	case ServiceAzureBlob:
		headers = azureblob.VolatileHeaders
	}
	return append([]string(nil), headers...)
}

// NewOpenAIClient creates an OpenAI client and the session it sends through
func NewOpenAIClient(config Config) (*openaisdk.Client, *Session, error) {
	config.Service = ServiceOpenAI
	session, err := NewSession(config)
	if err != nil {
		return nil, nil, err
	}
	client := openaiclient.NewClient(openaiclient.Config{
		APIKey:     apiKeyFor(config, "OPENAI_API_KEY"),
		BaseURL:    config.BaseURL,
		HTTPClient: session.HTTPClient(),
	})
	return client, session, nil
}

// NewAnthropicClient creates an Anthropic client and the session it sends through
func NewAnthropicClient(config Config) (*anthropicsdk.Client, *Session, error) {
	config.Service = ServiceAnthropic
	session, err := NewSession(config)
	if err != nil {
		return nil, nil, err
	}
	client := anthropicclient.NewClient(anthropicclient.Config{
		APIKey:     apiKeyFor(config, "ANTHROPIC_API_KEY"),
		BaseURL:    config.BaseURL,
		HTTPClient: session.HTTPClient(),
	})
	return client, session, nil
}

// NewBedrockClient creates a Bedrock runtime client and the session it sends through
func NewBedrockClient(config Config) (*bedrockruntime.Client, *Session, error) {
	config.Service = ServiceBedrock
	session, err := NewSession(config)
	if err != nil {
		return nil, nil, err
	}
	client, err := bedrockclient.NewClient(session.config.Context, bedrockclient.Config{
		Region:            config.Region,
		BaseURL:           config.BaseURL,
		HTTPClient:        session.HTTPClient(),
		StaticCredentials: session.Mode() == ModePlayback,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, session, nil
}

// NewVertexClient creates a GenAI client and the session it sends through.
// In playback mode Vertex AI uses a static token instead of real credentials.
func NewVertexClient(config Config) (*genai.Client, *Session, error) {
	config.Service = ServiceVertex
	session, err := NewSession(config)
	if err != nil {
		return nil, nil, err
	}
	vc := vertexclient.Config{
		APIKey:     apiKeyFor(config, "VERTEX_API_KEY", "GOOGLE_API_KEY"),
		Project:    config.Project,
		Location:   config.Location,
		BaseURL:    config.BaseURL,
		HTTPClient: session.HTTPClient(),
	}
	if session.Mode() == ModePlayback {
		vc.TokenProvider = vertexclient.StaticTokenProvider{Value: "playback"}
	}
	client, err := vertexclient.NewClient(session.config.Context, vc)
	if err != nil {
		return nil, nil, err
	}
	return client, session, nil
}

// NewAzureBlobClient creates a blob client for config.BaseURL and the session
// it sends through
func NewAzureBlobClient(config Config) (*azblob.Client, *Session, error) {
	config.Service = ServiceAzureBlob
	if config.BaseURL == "" {
		return nil, nil, fmt.Errorf("BaseURL (the storage account service URL) is required for %s", ServiceAzureBlob)
	}
	session, err := NewSession(config)
	if err != nil {
		return nil, nil, err
	}
	client, err := azureblob.NewClient(config.BaseURL, session.Transporter())
	if err != nil {
		return nil, nil, err
	}
	return client, session, nil
}

// apiKeyFor returns config.APIKey, then the first set environment variable.
// Playback never sends a real key, so it falls back to a placeholder.
func apiKeyFor(config Config, envVars ...string) string {
	if config.APIKey != "" {
		return config.APIKey
	}
	for _, name := range envVars {
		if v := os.Getenv(name); v != "" && config.Mode != ModePlayback {
			return v
		}
	}
	if config.Mode == ModePlayback {
		return "playback"
	}
	return ""
}

// ValidateService checks if the service string is valid
func ValidateService(service string) (Service, error) {
	switch Service(service) {
	case ServiceOpenAI, ServiceAnthropic, ServiceBedrock, ServiceVertex, ServiceAzureBlob:
		return Service(service), nil
	default:
		return "", fmt.Errorf("unsupported service: %s", service)
	}
}

// ParseMode checks if the mode string is valid
func ParseMode(mode string) (Mode, error) {
	switch Mode(mode) {
	case ModeLive, ModeRecord, ModePlayback:
		return Mode(mode), nil
	default:
		return "", fmt.Errorf("unsupported mode: %s (want live, record or playback)", mode)
	}
}

// noopLoggerImpl is a no-op logger used when Config.Logger is nil
type noopLoggerImpl struct{}

func (n *noopLoggerImpl) Infof(format string, v ...any)             {}
func (n *noopLoggerImpl) Errorf(format string, v ...any)            {}
func (n *noopLoggerImpl) Debugf(format string, args ...interface{}) {}

// DefaultLogger is a simple logger implementation that writes to stdout or a file
type DefaultLogger struct {
	output *os.File
	level  string
}

// NewDefaultLogger creates a new default logger instance
// If logFile is empty, logs to stdout. If logFile is provided, logs to that file.
// level can be "info" or "debug" - debug level enables Debugf output
func NewDefaultLogger(logFile string, level string) (interfaces.Logger, error) {
	var output *os.File
	var err error

	if logFile == "" {
		output = os.Stdout
	} else {
		logDir := filepath.Dir(logFile)
		if logDir != "." && logDir != "" {
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}

		output, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}

	if level != "info" && level != "debug" {
		level = "info"
	}

	return &DefaultLogger{
		output: output,
		level:  level,
	}, nil
}

// Infof logs an info message
func (l *DefaultLogger) Infof(format string, v ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(l.output, "[%s] [INFO] %s\n", timestamp, fmt.Sprintf(format, v...))
}

// Errorf logs an error message
func (l *DefaultLogger) Errorf(format string, v ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(l.output, "[%s] [ERROR] %s\n", timestamp, fmt.Sprintf(format, v...))
}

// Debugf logs a debug message (only if level is "debug")
func (l *DefaultLogger) Debugf(format string, args ...interface{}) {
	if l.level == "debug" {
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		fmt.Fprintf(l.output, "[%s] [DEBUG] %s\n", timestamp, fmt.Sprintf(format, args...))
	}
}
