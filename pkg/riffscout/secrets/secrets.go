// Package secrets reads credentials at call time. Every value it returns
// is registered with the default logger for redaction first.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/logger"
)

// Source yields a secret value.
type Source interface {
	Secret(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Secret(ctx context.Context) (string, error) {
	return f(ctx)
}

// Env reads the secret from an environment variable.
func Env(name string) Source {
	return SourceFunc(func(context.Context) (string, error) {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			return "", fmt.Errorf("%w: $%s is empty", apperr.ErrMissingCredential, name)
		}
		logger.RegisterSecret(v)
		return v, nil
	})
}

// File reads the secret from a mounted file, such as a container secret.
func File(path string) Source {
	return SourceFunc(func(context.Context) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", apperr.ErrMissingCredential, path, err)
		}
		v := strings.TrimSpace(string(data))
		if v == "" {
			return "", fmt.Errorf("%w: %s is empty", apperr.ErrMissingCredential, path)
		}
		logger.RegisterSecret(v)
		return v, nil
	})
}

// Static returns a fixed value. Intended for tests and programmatic use.
func Static(value string) Source {
	return SourceFunc(func(context.Context) (string, error) {
		if strings.TrimSpace(value) == "" {
			return "", apperr.ErrMissingCredential
		}
		logger.RegisterSecret(value)
		return value, nil
	})
}

// Chain tries each source in order and returns the first value found.
func Chain(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		var errs []string
		for _, s := range sources {
			if s == nil {
				continue
			}
			v, err := s.Secret(ctx)
			if err == nil {
				return v, nil
			}
			errs = append(errs, err.Error())
		}
		return "", fmt.Errorf("%w: %s", apperr.ErrMissingCredential, strings.Join(errs, "; "))
	})
}
