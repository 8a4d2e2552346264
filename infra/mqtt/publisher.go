// Package mqtt publishes solved charging setpoints so a wallbox controller
// can follow the optimized schedule.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/gridsim/bevflow/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	UseTLS      bool   `json:"use_tls"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
	CABundle    string `json:"ca_bundle"`
	MaxRetries  int    `json:"max_retries"`
	BackoffMS   int    `json:"backoff_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "bevflow"
	}
	if c.ClientID == "" {
		c.ClientID = "bevflow-" + uuid.NewString()[:8]
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 500
	}
}

// Setpoint is the payload published per component and step.
type Setpoint struct {
	Scenario  string    `json:"scenario"`
	Component string    `json:"component"`
	Time      time.Time `json:"time"`
	PowerKW   float64   `json:"power_kw"`
}

// Publisher delivers setpoints to a control channel.
type Publisher interface {
	Publish(Setpoint) error
	Close() error
}

// PahoPublisher implements Publisher using Eclipse Paho.
type PahoPublisher struct {
	cli    paho.Client
	prefix string
	qos    byte
	log    logger.Logger
}

// NewPahoPublisher connects to the broker, retrying with backoff.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	cli := paho.NewClient(opts)
	backoff := time.Duration(cfg.BackoffMS) * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		tok := cli.Connect()
		tok.Wait()
		if tok.Error() == nil {
			return &PahoPublisher{
				cli:    cli,
				prefix: cfg.TopicPrefix,
				qos:    cfg.QoS,
				log:    logger.New("mqtt-publisher"),
			}, nil
		}
		lastErr = tok.Error()
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.Broker, lastErr)
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CABundle != "" {
		ca, err := os.ReadFile(cfg.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("ca bundle %s contains no certificates", cfg.CABundle)
		}
		tlsCfg.RootCAs = pool
	}
	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// Publish sends the setpoint to <prefix>/<scenario>/<component>.
func (p *PahoPublisher) Publish(sp Setpoint) error {
	payload, err := json.Marshal(sp)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/%s/%s", p.prefix, sp.Scenario, sp.Component)
	tok := p.cli.Publish(topic, p.qos, false, payload)
	tok.Wait()
	if tok.Error() != nil {
		p.log.Errorf("publish %s: %v", topic, tok.Error())
		return tok.Error()
	}
	return nil
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() error {
	p.cli.Disconnect(250)
	return nil
}
