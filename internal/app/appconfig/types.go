package appconfig

import (
	"fmt"
	"strings"
)

var validTracingExporters = map[string]struct{}{
	"jaeger": {},
	"otlp":   {},
	"stdout": {},
}

func (c *ConfigSpec) validate() error {
	for _, exporter := range c.TracingExporters {
		if _, ok := validTracingExporters[strings.TrimSpace(exporter)]; !ok {
			return fmt.Errorf("invalid tracing exporter %q: expect one of jaeger, otlp, stdout", exporter)
		}
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("invalid tracing sample rate %v: expect a value between 0.0 and 1.0", c.TracingSampleRate)
	}
	if strings.TrimSpace(c.IdentityHeader) == "" {
		return fmt.Errorf("identity header must not be empty")
	}
	return nil
}
