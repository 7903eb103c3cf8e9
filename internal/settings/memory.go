package settings

import (
	"context"
	"sync"
)

// MemoryProvider keeps settings in process. The CLI uses it when redis is
// not configured.
type MemoryProvider struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{values: make(map[string]string)}
}

func (p *MemoryProvider) Get(_ context.Context, key string) (string, error) {
	d, ok := lookup(key)
	if !ok {
		return "", ErrUnknownKey
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v := p.values[key]; v != "" {
		return v, nil
	}
	return d.Default, nil
}

func (p *MemoryProvider) Set(_ context.Context, values map[string]string) error {
	update, err := normalizeUpdate(values)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, value := range update {
		if value == "" {
			delete(p.values, key)
			continue
		}
		p.values[key] = value
	}
	return nil
}

func (p *MemoryProvider) All(_ context.Context) (map[string]string, error) {
	values := Defaults()
	p.mu.RLock()
	defer p.mu.RUnlock()
	for key, value := range p.values {
		values[key] = value
	}
	return values, nil
}

func (p *MemoryProvider) Reset(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = make(map[string]string)
	return nil
}
