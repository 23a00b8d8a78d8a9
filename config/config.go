// Package config loads simulation parameter presets from a YAML file and
// hot-reloads them on change. A reload pushes the new Parameters into the
// running simulation wholesale, which re-energizes a settled layout so the
// change is visible.
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/TFMV/wikiforce/models"
)

// File is the on-disk shape of a preset file. Fields are pointers so an
// explicit zero (a valid value for charge, collision strength, and
// velocity decay) is distinguishable from an omitted field, which falls
// back to the default.
type File struct {
	Parameters struct {
		LinkDistance      *float64 `yaml:"link_distance"`
		ChargeStrength    *float64 `yaml:"charge_strength"`
		CollisionRadius   *float64 `yaml:"collision_radius"`
		CollisionStrength *float64 `yaml:"collision_strength"`
		VelocityDecay     *float64 `yaml:"velocity_decay"`
		AlphaDecay        *float64 `yaml:"alpha_decay"`
	} `yaml:"parameters"`
}

// Loader reads a YAML preset file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  models.Parameters
	onChange []func(models.Parameters)
}

// NewLoader creates a Loader and performs the initial load. Zero-valued
// fields in the file fall back to the defaults.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	params, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = params
	return l, nil
}

// Parameters returns the current (latest) parameter set.
func (l *Loader) Parameters() models.Parameters {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the preset file reloads
// with a valid parameter set.
func (l *Loader) OnChange(fn func(models.Parameters)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the preset file on
// writes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					params, err := l.load()
					if err != nil {
						// Keep the old parameters on a bad reload.
						continue
					}
					l.mu.Lock()
					l.current = params
					callbacks := make([]func(models.Parameters), len(l.onChange))
					copy(callbacks, l.onChange)
					l.mu.Unlock()
					for _, fn := range callbacks {
						fn(params)
					}
				}
			case <-w.Errors:
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

func (l *Loader) load() (models.Parameters, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return models.Parameters{}, fmt.Errorf("reading config %s: %w", l.path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML preset, applying defaults for omitted fields and
// validating the result.
func Parse(data []byte) (models.Parameters, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return models.Parameters{}, fmt.Errorf("parsing config: %w", err)
	}

	params := models.DefaultParameters()
	p := f.Parameters
	if p.LinkDistance != nil {
		params.LinkDistance = *p.LinkDistance
	}
	if p.ChargeStrength != nil {
		params.ChargeStrength = *p.ChargeStrength
	}
	if p.CollisionRadius != nil {
		params.CollisionRadius = *p.CollisionRadius
	}
	if p.CollisionStrength != nil {
		params.CollisionStrength = *p.CollisionStrength
	}
	if p.VelocityDecay != nil {
		params.VelocityDecay = *p.VelocityDecay
	}
	if p.AlphaDecay != nil {
		params.AlphaDecay = *p.AlphaDecay
	}

	if err := params.Validate(); err != nil {
		return models.Parameters{}, err
	}
	return params, nil
}
