// Package telemetry publishes periodic status snapshots to an MQTT broker.
// Entirely optional; broker trouble never touches the render loop.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/example/dxlight/internal/config"
	"github.com/example/dxlight/internal/pipeline"
)

const (
	connectTimeout  = 5 * time.Second
	publishTimeout  = 2 * time.Second
	defaultInterval = 10 * time.Second
)

// Publisher pushes pipeline status JSON to a topic at a fixed interval.
type Publisher struct {
	cfg    config.MQTT
	pipe   *pipeline.Pipeline
	client mqtt.Client
}

func NewPublisher(cfg config.MQTT, pipe *pipeline.Pipeline) *Publisher {
	return &Publisher{cfg: cfg, pipe: pipe}
}

// Run connects and publishes until ctx is cancelled. Connection failures log
// and retry through paho's auto-reconnect; they are never fatal.
func (p *Publisher) Run(ctx context.Context) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.cfg.Broker)
	opts.SetClientID(p.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		log.Info().Str("broker", p.cfg.Broker).Msg("mqtt connected")
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	}

	p.client = mqtt.NewClient(opts)
	token := p.client.Connect()
	if token.WaitTimeout(connectTimeout) {
		if err := token.Error(); err != nil {
			log.Warn().Err(err).Str("broker", p.cfg.Broker).Msg("mqtt connect failed")
		}
	}
	defer p.client.Disconnect(250)

	interval := defaultInterval
	if p.cfg.IntervalS > 0 {
		interval = time.Duration(p.cfg.IntervalS * float64(time.Second))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publish()
		}
	}
}

func (p *Publisher) publish() {
	if !p.client.IsConnected() {
		return
	}
	st := p.pipe.Status()
	st.Colors = nil // status only, no frame payloads over the broker
	payload, err := json.Marshal(st)
	if err != nil {
		return
	}
	token := p.client.Publish(p.cfg.Topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Debug().Msg("mqtt publish timeout")
		return
	}
	if err := token.Error(); err != nil {
		log.Debug().Err(err).Msg("mqtt publish failed")
	}
}
