package simulator

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"qr-dashboard/internal/esp32"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// StatusInvalidCode is returned for QR codes missing from the routing table
const StatusInvalidCode = "invalid_code"

// Config describes how the simulated device answers
type Config struct {
	// Routes maps a QR code to the position the device reports for it
	Routes map[string]int `yaml:"routes"`
	// Latency delays every reply; above esp32.RequestTimeout it makes the dashboard time out
	Latency time.Duration `yaml:"latency"`
}

// LoadConfig reads a simulator routing table from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulator config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode simulator config: %w", err)
	}

	return &cfg, nil
}

type classifyReply struct {
	Status  string `json:"status"`
	Posicao int    `json:"posicao,omitempty"`
	QR      string `json:"qr,omitempty"`
}

// Device is a fake classification device speaking the /classificar contract
type Device struct {
	cfg      Config
	logger   *zap.Logger
	requests atomic.Int64
}

// NewDevice creates a simulated device
func NewDevice(cfg Config, logger *zap.Logger) *Device {
	if cfg.Routes == nil {
		cfg.Routes = map[string]int{}
	}
	return &Device{
		cfg:    cfg,
		logger: logger,
	}
}

// RegisterRoutes registers the device endpoint
func (d *Device) RegisterRoutes(r *gin.Engine) {
	r.POST(esp32.ClassifyPath, d.Classify)
}

// Requests returns how many classification requests have been received
func (d *Device) Requests() int64 {
	return d.requests.Load()
}

// Classify answers one classification request
func (d *Device) Classify(c *gin.Context) {
	d.requests.Add(1)

	var req esp32.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "bad_request", "error": err.Error()})
		return
	}
	if strings.TrimSpace(req.QR) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "bad_request", "error": "qr is required"})
		return
	}

	if d.cfg.Latency > 0 {
		select {
		case <-time.After(d.cfg.Latency):
		case <-c.Request.Context().Done():
			return
		}
	}

	pos, ok := d.cfg.Routes[req.QR]
	if !ok {
		d.logger.Info("Unknown QR code", zap.String("qr", req.QR))
		c.JSON(http.StatusOK, classifyReply{Status: StatusInvalidCode, QR: req.QR})
		return
	}

	d.logger.Info("QR code routed", zap.String("qr", req.QR), zap.Int("posicao", pos))
	c.JSON(http.StatusOK, classifyReply{Status: esp32.StatusOK, Posicao: pos, QR: req.QR})
}
