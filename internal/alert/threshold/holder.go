package threshold

import (
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Holder serves the current thresholds and swaps them atomically when the
// backing file changes. Invalid updates are logged and ignored.
type Holder struct {
	value atomic.Value
	log   *zap.Logger
}

// NewHolder seeds the holder from the environment and, when a path is
// configured, from a thresholds.yml style file watched for changes.
func NewHolder(cfg config.Config, log *zap.Logger) (*Holder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Holder{log: log.Named("alert.threshold")}

	initial := Thresholds{High: cfg.Thresholds.High, Low: cfg.Thresholds.Low}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	h.value.Store(initial)

	path := strings.TrimSpace(cfg.Thresholds.ConfigPath)
	if path == "" {
		return h, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("high", initial.High)
	v.SetDefault("low", initial.Low)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			h.log.Warn("thresholds file unreadable, keeping environment values",
				zap.String("path", filepath.Clean(path)),
				zap.Error(err),
			)
			return h, nil
		}
	} else {
		h.apply(v)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		h.log.Info("thresholds file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		h.apply(v)
	})
	v.WatchConfig()

	return h, nil
}

// NewStaticHolder returns a holder that only ever serves t.
func NewStaticHolder(t Thresholds) *Holder {
	h := &Holder{log: zap.NewNop()}
	h.value.Store(t)
	return h
}

func (h *Holder) Snapshot() Thresholds {
	return h.value.Load().(Thresholds)
}

// Update validates and installs t, leaving the previous snapshot on error.
func (h *Holder) Update(t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	h.value.Store(t)
	return nil
}

func (h *Holder) apply(v *viper.Viper) {
	next := Thresholds{}
	if err := v.Unmarshal(&next); err != nil {
		h.log.Warn("thresholds file invalid", zap.Error(err))
		return
	}
	if err := h.Update(next); err != nil {
		h.log.Warn("thresholds update rejected", zap.Error(err))
		return
	}
	h.log.Info("thresholds updated",
		zap.Float64("high", next.High),
		zap.Float64("low", next.Low),
	)
}
