package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/offlinecache/pkg/manifest"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks cfg against its struct tags and the cross-field rules the
// tags cannot express. Each failure names the field and the rule it broke.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if _, err := manifest.ParseOrigin(cfg.Origin.URL); err != nil {
		return fmt.Errorf("origin.url: %w", err)
	}

	p := cfg.Partitions
	if p.Staging == p.Content || p.Staging == p.Manifest || p.Content == p.Manifest {
		return fmt.Errorf("partitions: staging, content and manifest must be distinct (got %q, %q, %q)",
			p.Staging, p.Content, p.Manifest)
	}

	if cfg.Manifest.Watch && cfg.Manifest.Path == "" {
		return errors.New("manifest.watch requires manifest.path")
	}

	ports := map[int]string{}
	for name, port := range map[string]int{
		"proxy.port":        cfg.Proxy.Port,
		"controlplane.port": cfg.ControlPlane.Port,
	} {
		if other, dup := ports[port]; dup {
			return fmt.Errorf("%s and %s both use port %d", other, name, port)
		}
		ports[port] = name
	}
	if cfg.Metrics.Enabled {
		if other, dup := ports[cfg.Metrics.Port]; dup {
			return fmt.Errorf("%s and metrics.port both use port %d", other, cfg.Metrics.Port)
		}
	}

	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fieldPath(fe.Namespace()), rule, fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath drops the root type name from a validator namespace:
// "Config.Logging.Level" becomes "Logging.Level".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
