package graphcodec

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/puzpuzpuz/xsync/v4"
)

// Engine resolves and caches the codecs of Go types. An Engine is safe for
// concurrent use; everything it caches lives as long as the Engine.
type Engine struct {
	policy    SerializationPolicy
	providers []SerializationProvider
	registry  *TypeRegistry
	logger    Logger
	maxStack  int
	factories map[reflect.Type]Instantiator

	codecs *xsync.Map[reflect.Type, *handle]
	trees  *xsync.Map[reflect.Type, *fieldsCell]
	pools  bufferPools
}

type options struct {
	policy     SerializationPolicy
	providers  []SerializationProvider
	registry   *TypeRegistry
	logger     Logger
	maxStack   int
	bufferSize int
	custom     []customRegistration
	factories  map[reflect.Type]Instantiator
}

type customRegistration struct {
	typ     reflect.Type
	factory func() DataSerializer
}

// Option configures an Engine.
type Option func(*options)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(policy SerializationPolicy) Option {
	return func(o *options) { o.policy = policy }
}

// WithProviders replaces the default provider chain. Serializers registered
// with WithCustomSerializer are only consulted through DefaultProviders.
func WithProviders(providers ...SerializationProvider) Option {
	return func(o *options) { o.providers = providers }
}

// WithTypeRegistry replaces DefaultTypeRegistry.
func WithTypeRegistry(registry *TypeRegistry) Option {
	return func(o *options) { o.registry = registry }
}

// WithLogger sets the sink of the errors the engine reports.
func WithLogger(logger Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMaxStack sets how many nested invocations of one object codec a call
// may make before failing with ErrCircularReference.
func WithMaxStack(n int) Option {
	return func(o *options) { o.maxStack = n }
}

// WithBufferSize sets the initial capacity of pooled buffers.
func WithBufferSize(size int) Option {
	return func(o *options) { o.bufferSize = size }
}

// WithCustomSerializer registers a hand-written codec for t. It pre-empts
// every other provider in the default chain.
func WithCustomSerializer(t reflect.Type, factory func() DataSerializer) Option {
	return func(o *options) { o.custom = append(o.custom, customRegistration{t, factory}) }
}

// WithFactory registers the function object codecs use to allocate a *T
// when decoding into a nil slot.
func WithFactory[T any](fn func() *T) Option {
	return func(o *options) {
		if o.factories == nil {
			o.factories = make(map[reflect.Type]Instantiator)
		}
		o.factories[reflect.TypeFor[T]()] = InstantiatorFunc(func() unsafe.Pointer {
			return unsafe.Pointer(fn())
		})
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	o := options{
		policy:     DefaultPolicy{},
		maxStack:   MaxStack,
		bufferSize: PoolSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultTypeRegistry()
	}
	if o.logger == nil {
		o.logger = NopLogger()
	}
	if o.providers == nil {
		custom := NewCustomSerializerProvider(o.logger)
		for _, c := range o.custom {
			custom.Register(c.typ, c.factory)
		}
		o.providers = DefaultProviders(custom)
	}
	return &Engine{
		policy:    o.policy,
		providers: o.providers,
		registry:  o.registry,
		logger:    o.logger,
		maxStack:  o.maxStack,
		factories: o.factories,
		codecs:    xsync.NewMap[reflect.Type, *handle](),
		trees:     xsync.NewMap[reflect.Type, *fieldsCell](),
		pools:     newBufferPools(Roundup(o.bufferSize, 512)),
	}
}

// DefaultProviders is the provider chain of New, in priority order.
func DefaultProviders(custom *CustomSerializerProvider) []SerializationProvider {
	return []SerializationProvider{
		custom,
		&EnumSerializationProvider{},
		&CallbackObjectSerializationProvider{},
		&ObjectSerializationProvider{},
		&StructSerializationProvider{},
		&ArraySerializationProvider{},
		&ListSerializationProvider{},
		&StringSerializationProvider{},
		&PrimitiveSerializationProvider{},
	}
}

var defaultEngine = sync.OnceValue(func() *Engine { return New() })

// Default returns the process-wide Engine with the default configuration.
func Default() *Engine { return defaultEngine() }

func (e *Engine) Policy() SerializationPolicy { return e.policy }
func (e *Engine) Registry() *TypeRegistry     { return e.registry }
func (e *Engine) Logger() Logger              { return e.logger }

// NewContext creates a call context using the engine's cycle guard bound.
func (e *Engine) NewContext(value any) *Context { return NewContext(value, e.maxStack) }

// TryGet resolves the codec of t without initializing it.
func (e *Engine) TryGet(t reflect.Type) (DataSerializer, bool) {
	h, err := e.resolve(t)
	if err != nil {
		return nil, false
	}
	return h, true
}

// Serializer resolves the codec of t and initializes it.
func (e *Engine) Serializer(t reflect.Type) (DataSerializer, error) {
	h, err := e.resolve(t)
	if err != nil {
		return nil, err
	}
	if err := h.ready(); err != nil {
		return nil, err
	}
	return h, nil
}

// resolve asks each provider in turn for a codec of t and caches the first
// answer. Failures are not cached.
func (e *Engine) resolve(t reflect.Type) (*handle, error) {
	if t == nil {
		return nil, errors.Wrap(ErrNoSerializer, "nil type")
	}
	h, _ := e.codecs.LoadOrCompute(t, func() (*handle, bool) {
		for _, p := range e.providers {
			if s, ok := p.TryGet(e, t); ok {
				return newHandle(e, t, s), false
			}
		}
		return nil, true
	})
	if h == nil {
		return nil, errors.Wrapf(ErrNoSerializer, "%s", t)
	}
	return h, nil
}

// logError reports err through the engine's logger.
func (e *Engine) logError(format string, args ...any) {
	e.logger.Error(fmt.Sprintf(format, args...))
}

// handle wraps a resolved serializer so that Initialize runs exactly once,
// before the first Write or Read, and caches its data type.
type handle struct {
	engine   *Engine
	typ      reflect.Type
	s        DataSerializer
	dataType DataType
	once     sync.Once
	err      error
}

var _ DataSerializer = (*handle)(nil)

func newHandle(e *Engine, t reflect.Type, s DataSerializer) *handle {
	return &handle{engine: e, typ: t, s: s, dataType: s.DataType()}
}

func (h *handle) ready() error {
	h.once.Do(func() {
		if err := h.s.Initialize(h.engine); err != nil {
			h.err = errors.Wrapf(err, "initializing serializer of %s", h.typ)
		}
	})
	return h.err
}

func (h *handle) DataType() DataType { return h.dataType }

// Unwrap returns the serializer the provider created.
func (h *handle) Unwrap() DataSerializer { return h.s }

func (h *handle) Initialize(*Engine) error { return h.ready() }

func (h *handle) Write(ptr unsafe.Pointer, out *Output, ctx *Context) error {
	if err := h.ready(); err != nil {
		return err
	}
	return h.s.Write(ptr, out, ctx)
}

func (h *handle) Read(ptr unsafe.Pointer, in *Input, ctx *Context) error {
	if err := h.ready(); err != nil {
		return err
	}
	return h.s.Read(ptr, in, ctx)
}
