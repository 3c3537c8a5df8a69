package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/irhvac-core/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// disconnectQuiesceMs is paho's drain window on Disconnect.
	disconnectQuiesceMs = 1000

	keepAlive = 60 * time.Second

	maxQoS = 2
)

// clientOptions maps the config's mqtt section onto paho options:
// tcp or ssl URL, optional username auth, clean session, and
// auto-reconnect with exponential backoff between the configured
// initial and max delays.
//
// The LWT is installed here so the broker flips the retained status
// topic to offline if the process dies without a clean Close.
func clientOptions(cfg config.MQTTConfig, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	opts.SetClientID(clientID)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)

	opts.SetWill(Topics{}.SystemStatus(),
		string(statusPayload("offline", clientID, "unexpected_disconnect")), 1, true)

	return opts
}

// systemStatus is the retained document on irhvac/system/status.
// Subscribers distinguish a crash (reason unexpected_disconnect, set
// by the broker via LWT) from a clean shutdown (graceful_shutdown).
type systemStatus struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

func statusPayload(status, clientID, reason string) []byte {
	payload, _ := json.Marshal(systemStatus{ //nolint:errcheck // Fixed shape cannot fail
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return payload
}
