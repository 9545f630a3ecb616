// Package broker publishes CloudEvents envelopes onto the Kafka topic
// (spec.md §4.6). Publication is best-effort and never fails the caller's
// request: the database remains the source of truth.
package broker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"

	"github.com/xbcsmith/xzepr/internal/config"
	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

// ErrNoPublisher is returned by callers that attempt to use a Publisher
// that failed to initialize (spec.md §4.6: "the ingestion handler continues
// without a publisher").
var ErrNoPublisher = fmt.Errorf("broker: no publisher configured")

// Credentials holds the subset of BrokerConfig carrying secret material.
// String/GoString are overridden so the password never prints in a log
// line, panic trace, or %+v dump of a struct that embeds this type —
// following the teacher's AppError pattern of controlling exactly what is
// printable.
type Credentials struct {
	Username string
	password string
}

func (c Credentials) String() string   { return fmt.Sprintf("Credentials{Username:%q, password:<redacted>}", c.Username) }
func (c Credentials) GoString() string { return c.String() }

// Zero clears this value's password field. Go strings are immutable, so
// this cannot scrub the original backing array the way a Rust `Drop` could;
// it is best-effort defense in depth, clearing the Credentials value's own
// reference so it can be garbage collected without being retained by this
// struct.
func (c *Credentials) Zero() { c.password = "" }

// Publisher wraps a kafka-go Writer configured from BrokerConfig.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	deadline time.Duration
}

// New builds a Publisher. On any configuration/dial failure it returns a
// nil Publisher and an error; callers MUST treat that as "continue without
// a publisher, logged WARN at startup" per spec.md §4.6, not as a fatal
// startup error.
func New(cfg config.BrokerConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("broker: no broker addresses configured")
	}

	transport := &kafka.Transport{}

	switch cfg.SecurityProtocol {
	case "", "plaintext":
		// no auth
	case "ssl":
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("broker: build tls config: %w", err)
		}
		transport.TLS = tlsConfig
	case "sasl_plaintext", "sasl_ssl":
		mechanism, err := buildSASLMechanism(cfg)
		if err != nil {
			return nil, fmt.Errorf("broker: build sasl mechanism: %w", err)
		}
		transport.SASL = mechanism
		if cfg.SecurityProtocol == "sasl_ssl" {
			tlsConfig, err := buildTLSConfig(cfg)
			if err != nil {
				return nil, fmt.Errorf("broker: build tls config: %w", err)
			}
			transport.TLS = tlsConfig
		}
	default:
		return nil, fmt.Errorf("broker: unknown security protocol %q", cfg.SecurityProtocol)
	}

	deadline := cfg.PublishDeadline
	if deadline <= 0 {
		deadline = 5 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // partition key = event id (spec.md §4.6)
		RequiredAcks: kafka.RequireOne,
		Async:        false, // awaited only up to the deadline, still fire-and-forget beyond that
		Transport:    transport,
	}

	return &Publisher{writer: writer, topic: cfg.Topic, deadline: deadline}, nil
}

func buildTLSConfig(cfg config.BrokerConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{}
	if cfg.SSLCALocation != "" {
		caCert, err := os.ReadFile(cfg.SSLCALocation)
		if err != nil {
			return nil, fmt.Errorf("read ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parse ca cert: no valid certificates found")
		}
		tlsConfig.RootCAs = pool
	}
	if cfg.SSLCertLocation != "" && cfg.SSLKeyLocation != "" {
		cert, err := tls.LoadX509KeyPair(cfg.SSLCertLocation, cfg.SSLKeyLocation)
		if err != nil {
			return nil, fmt.Errorf("load client keypair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

func buildSASLMechanism(cfg config.BrokerConfig) (sasl.Mechanism, error) {
	creds := Credentials{Username: cfg.SASLUsername, password: cfg.SASLPassword}
	defer creds.Zero()

	switch cfg.SASLMechanism {
	case "PLAIN", "":
		return plain.Mechanism{Username: creds.Username, Password: cfg.SASLPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, creds.Username, cfg.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, creds.Username, cfg.SASLPassword)
	case "GSSAPI", "OAUTHBEARER":
		return nil, fmt.Errorf("sasl mechanism %q is not implemented by this producer", cfg.SASLMechanism)
	default:
		return nil, fmt.Errorf("unknown sasl mechanism %q", cfg.SASLMechanism)
	}
}

// Publish writes a single CloudEvents envelope. The partition key is the
// event id (UTF-8): key equality guarantees in-order delivery per key
// (spec.md §4.6). The call is bounded by the publish deadline; beyond that
// it returns an error so the caller can log+meter without blocking the
// request.
func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	if p == nil {
		return ErrNoPublisher
	}

	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close closes the underlying writer. The application's shutdown path
// (internal/app Application.Shutdown) closes the database pool and does not
// call Close.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

// WarnUnavailable logs the startup WARN spec.md §4.6 requires when the
// broker could not be reached at boot.
func WarnUnavailable(err error) {
	logger.Warn("broker unavailable at startup, continuing without a publisher", zap.Error(err))
}
