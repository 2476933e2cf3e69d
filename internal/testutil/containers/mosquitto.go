//go:build integration

package containers

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const mosquittoImage = "eclipse-mosquitto:2.0"

// Mosquitto 2.x refuses remote connections unless a listener is configured,
// so a minimal anonymous config is mounted into the container.
const mosquittoConf = `listener 1883
allow_anonymous true
`

// MosquittoContainer wraps a disposable Eclipse Mosquitto broker for
// publisher tests.
type MosquittoContainer struct {
	container  testcontainers.Container
	brokerURL  string
	configFile string
}

// StartMosquitto starts an anonymous-access Mosquitto broker and verifies it
// accepts MQTT connections before returning.
func StartMosquitto(ctx context.Context) (*MosquittoContainer, error) {
	configFile, err := writeTempConfig()
	if err != nil {
		return nil, err
	}

	req := testcontainers.ContainerRequest{
		Image:        mosquittoImage,
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-test.conf"},
		Files: []testcontainers.ContainerFile{
			{
				HostFilePath:      configFile,
				ContainerFilePath: "/mosquitto-test.conf",
				FileMode:          0o644,
			},
		},
		WaitingFor: wait.ForLog("mosquitto version").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		_ = os.Remove(configFile)
		return nil, fmt.Errorf("start mosquitto container: %w", err)
	}

	mc := &MosquittoContainer{container: container, configFile: configFile}

	host, err := container.Host(ctx)
	if err != nil {
		_ = mc.Terminate(context.Background())
		return nil, fmt.Errorf("mosquitto host: %w", err)
	}
	port, err := container.MappedPort(ctx, "1883")
	if err != nil {
		_ = mc.Terminate(context.Background())
		return nil, fmt.Errorf("mosquitto mapped port: %w", err)
	}
	mc.brokerURL = fmt.Sprintf("tcp://%s", net.JoinHostPort(host, strconv.Itoa(port.Int())))

	if err := mc.healthCheck(); err != nil {
		_ = mc.Terminate(context.Background())
		return nil, err
	}
	return mc, nil
}

func writeTempConfig() (string, error) {
	f, err := os.CreateTemp("", "mosquitto-*.conf")
	if err != nil {
		return "", fmt.Errorf("create mosquitto config: %w", err)
	}
	if _, err := f.WriteString(mosquittoConf); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write mosquitto config: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close mosquitto config: %w", err)
	}
	return f.Name(), nil
}

// BrokerURL returns the broker address, e.g. "tcp://localhost:32769".
func (c *MosquittoContainer) BrokerURL(t *testing.T) string {
	t.Helper()
	if c.brokerURL == "" {
		t.Fatal("broker URL is empty")
	}
	return c.brokerURL
}

// Subscribe connects a throwaway client and subscribes the handler to the
// given topic filter. The caller must disconnect the returned client.
func (c *MosquittoContainer) Subscribe(clientID, filter string, handler mqtt.MessageHandler) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.brokerURL)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("connect subscriber %s: %w", clientID, token.Error())
	}
	if token := client.Subscribe(filter, 1, handler); !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("subscribe %s: %w", filter, token.Error())
	}
	return client, nil
}

func (c *MosquittoContainer) healthCheck() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.brokerURL)
	opts.SetClientID("healthcheck")
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetAutoReconnect(false)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("broker health check timed out")
	}
	if token.Error() != nil {
		return fmt.Errorf("broker health check: %w", token.Error())
	}
	client.Disconnect(250)
	return nil
}

// Terminate stops the container and removes the temp config file.
func (c *MosquittoContainer) Terminate(ctx context.Context) error {
	var terminateErr error
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			terminateErr = fmt.Errorf("terminate mosquitto container: %w", err)
		}
	}
	if c.configFile != "" {
		_ = os.Remove(c.configFile)
	}
	return terminateErr
}
