package graphcodec

import (
	"reflect"
	"sync"
)

// CustomSerializerProvider hands out hand-written codecs registered per type.
// It sits first in the default chain, so a registration pre-empts every
// built-in codec of the same type.
type CustomSerializerProvider struct {
	logger    Logger
	mu        sync.RWMutex
	factories map[reflect.Type]func() DataSerializer
}

var _ SerializationProvider = (*CustomSerializerProvider)(nil)

// NewCustomSerializerProvider creates an empty provider that reports
// registration mistakes to logger.
func NewCustomSerializerProvider(logger Logger) *CustomSerializerProvider {
	if logger == nil {
		logger = NopLogger()
	}
	return &CustomSerializerProvider{
		logger:    logger,
		factories: make(map[reflect.Type]func() DataSerializer),
	}
}

// Register binds t to factory. The first registration of a type wins.
func (p *CustomSerializerProvider) Register(t reflect.Type, factory func() DataSerializer) bool {
	if t == nil || factory == nil {
		p.logger.Error("codec: ignoring custom serializer registration with a nil type or factory")
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.factories[t]; ok {
		p.logger.Error("codec: custom serializer for " + t.String() + " is already registered")
		return false
	}
	p.factories[t] = factory
	return true
}

func (p *CustomSerializerProvider) TryGet(_ *Engine, t reflect.Type) (DataSerializer, bool) {
	p.mu.RLock()
	factory, ok := p.factories[t]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s := factory()
	if s == nil {
		p.logger.Error("codec: custom serializer factory for " + t.String() + " returned nil")
		return nil, false
	}
	return s, true
}
