package mqtt

import (
	"errors"
	"strings"
	"testing"

	"github.com/somniastreams/marketcore/internal/infrastructure/config"
)

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "device reading",
			got:  topics.DeviceReading("weather_station", "0xabc123"),
			want: "datastreams/weather_station/0xabc123/reading",
		},
		{
			name: "device stream wildcard",
			got:  topics.DeviceStream("gps_tracker"),
			want: "datastreams/gps_tracker/+/reading",
		},
		{
			name: "system status",
			got:  topics.SystemStatus(),
			want: "marketcore/system/status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("topic = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPublish_Validation(t *testing.T) {
	// A zero-value client is never connected; validation errors must
	// surface before any connection check panics.
	c := &Client{}

	if err := c.Publish("", []byte("x"), 0, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("datastreams/test", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos error = %v, want ErrInvalidQoS", err)
	}

	huge := make([]byte, maxPayloadSize+1)
	if err := c.Publish("datastreams/test", huge, 0, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversize payload error = %v, want ErrPublishFailed", err)
	}
	if err := c.Publish("datastreams/test", []byte("x"), 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v, want ErrNotConnected", err)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "broker.local",
			Port:     8883,
			TLS:      true,
			ClientID: "marketcore-test",
		},
		Auth: config.MQTTAuthConfig{
			Username: "svc",
			Password: "secret",
		},
		QoS: 1,
	}
	cfg.Reconnect.InitialDelay = 1
	cfg.Reconnect.MaxDelay = 60

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("server count = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "ssl://broker.local:8883" {
		t.Errorf("broker URL = %q, want ssl scheme from TLS config", got)
	}
	if opts.ClientID != "marketcore-test" {
		t.Errorf("ClientID = %q, want marketcore-test", opts.ClientID)
	}
	if opts.Username != "svc" {
		t.Errorf("Username = %q, want svc", opts.Username)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig should be set when TLS is enabled")
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("marketcore-1")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, "marketcore-1") {
		t.Errorf("online payload = %s", online)
	}

	offline := buildOfflinePayload("marketcore-1")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, "graceful_shutdown") {
		t.Errorf("offline payload = %s", offline)
	}
}
