package fixtures

import "context"

// Storage is the contract a concrete fixture class supplies for its
// backend. Every method receives fully resolved data and nothing else;
// the core guarantees resolution completed before any of them is called.
type Storage interface {
	Exists(ctx context.Context, data Data) (bool, error)
	Create(ctx context.Context, data Data) error
	Delete(ctx context.Context, data Data) error
}

// Class groups the configuration shared by every fixture of one kind:
// its storage operations, field resolvers, defaults, and how fixtures of
// the class are substituted when referenced from other fixtures' data.
//
// Classes are assembled once at definition time and treated as read-only
// afterwards, so they are safe for concurrent use.
type Class struct {
	name      string
	parent    *Class
	storage   Storage
	defaults  Data
	identity  []string
	reference ReferenceResolver
	evaluator Evaluator
	logger    Logger
	fields    *fieldRegistry
}

// ClassOption configures a Class at construction.
type ClassOption func(*classConfig)

type classConfig struct {
	parent    *Class
	storage   Storage
	defaults  Data
	identity  []string
	reference ReferenceResolver
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
	logger    Logger
	register  []func(*Class) error
}

// WithParent declares an ancestor class. Field resolvers, storage,
// defaults, and identity fields are inherited unless overridden here.
func WithParent(parent *Class) ClassOption {
	return func(cfg *classConfig) {
		cfg.parent = parent
	}
}

// WithStorage supplies the backend operations for fixtures of this class.
func WithStorage(storage Storage) ClassOption {
	return func(cfg *classConfig) {
		cfg.storage = storage
	}
}

// WithDefaults declares field values merged under every fixture's data.
// Explicit fixture data always wins over defaults.
func WithDefaults(defaults Data) ClassOption {
	return func(cfg *classConfig) {
		cfg.defaults = defaults.clone()
	}
}

// WithIdentity names the fields that identify a fixture of this class in
// log and error messages.
func WithIdentity(fields ...string) ClassOption {
	return func(cfg *classConfig) {
		cfg.identity = append([]string(nil), fields...)
	}
}

// WithReferenceResolver overrides the value substituted when a fixture of
// this class is referenced from another fixture's data.
func WithReferenceResolver(resolver ReferenceResolver) ClassOption {
	return func(cfg *classConfig) {
		cfg.reference = resolver
	}
}

// WithEvaluator configures the expression engine used by expression-backed
// field resolvers of this class.
func WithEvaluator(e Evaluator) ClassOption {
	return func(cfg *classConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache wires a compiled-program cache into the default
// evaluator. Ignored when WithEvaluator supplies a custom engine.
func WithProgramCache(cache ProgramCache) ClassOption {
	return func(cfg *classConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes registry functions to expression-backed
// field resolvers. Ignored when WithEvaluator supplies a custom engine.
func WithFunctionRegistry(registry *FunctionRegistry) ClassOption {
	return func(cfg *classConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for expression-backed field
// resolvers of this class.
func WithCustomFunction(name string, fn Function) ClassOption {
	return func(cfg *classConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithLogger attaches a logger receiving resolution and storage events for
// fixtures of this class.
func WithLogger(logger Logger) ClassOption {
	return func(cfg *classConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithFieldResolver registers fn for field at definition time. Duplicate
// registrations for the same field are a programming error and surface on
// the first Resolve of any fixture of the class.
func WithFieldResolver(field string, fn FieldResolver) ClassOption {
	return func(cfg *classConfig) {
		cfg.register = append(cfg.register, func(c *Class) error {
			return c.ResolveField(field, fn)
		})
	}
}

// WithFieldExpr registers an expression-backed resolver for field.
func WithFieldExpr(field, expr string) ClassOption {
	return func(cfg *classConfig) {
		cfg.register = append(cfg.register, func(c *Class) error {
			return c.ResolveFieldExpr(field, expr)
		})
	}
}

// NewClass builds a fixture class. Registration errors from WithFieldResolver
// and WithFieldExpr options are deferred to the first resolution so class
// declarations stay assignable to package-level variables.
func NewClass(name string, opts ...ClassOption) *Class {
	cfg := classConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	c := &Class{
		name:      name,
		parent:    cfg.parent,
		storage:   cfg.storage,
		defaults:  cfg.defaults,
		identity:  cfg.identity,
		reference: cfg.reference,
		evaluator: cfg.evaluator,
		logger:    cfg.logger,
		fields:    newFieldRegistry(),
	}
	if c.evaluator == nil {
		var exprOpts []ExprEvaluatorOption
		if cfg.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
		}
		c.evaluator = NewExprEvaluator(exprOpts...)
	}
	for _, register := range cfg.register {
		if err := register(c); err != nil {
			c.fields.deferError(err)
		}
	}
	return c
}

// Name returns the class name.
func (c *Class) Name() string {
	if c == nil {
		return "Fixture"
	}
	return c.name
}

// New constructs a fixture of this class. Data is copied and, when the
// class declares defaults, merged over them; the result is the fixture's
// immutable raw data.
func (c *Class) New(data Data) *Fixture {
	return &Fixture{
		class: c,
		data:  mergeData(data, c.allDefaults()),
		state: stateUnresolved,
	}
}

// ResolveField registers fn as the resolver for field on this class.
func (c *Class) ResolveField(field string, fn FieldResolver) error {
	if fn == nil {
		return wrapResolverRegistration(c, field, errNilResolver)
	}
	return c.fields.register(fieldBinding{
		field:  field,
		engine: "func",
		fn: func(ctx FieldContext) (any, error) {
			return fn(ctx.Value)
		},
	})
}

// ResolveFieldExpr compiles expr with the class evaluator and registers the
// resulting program as the resolver for field.
func (c *Class) ResolveFieldExpr(field, expr string) error {
	evaluator := c.effectiveEvaluator()
	if evaluator == nil {
		return wrapResolverRegistration(c, field, ErrNoEvaluator)
	}
	compiled, err := evaluator.Compile(expr)
	if err != nil {
		return wrapResolverRegistration(c, field, err)
	}
	return c.fields.register(fieldBinding{
		field:  field,
		engine: evaluatorEngineName(evaluator),
		expr:   expr,
		fn:     compiled.Evaluate,
	})
}

func (c *Class) effectiveEvaluator() Evaluator {
	for cls := c; cls != nil; cls = cls.parent {
		if cls.evaluator != nil {
			return cls.evaluator
		}
	}
	return nil
}

func (c *Class) effectiveStorage() Storage {
	for cls := c; cls != nil; cls = cls.parent {
		if cls.storage != nil {
			return cls.storage
		}
	}
	return nil
}

func (c *Class) effectiveLogger() Logger {
	for cls := c; cls != nil; cls = cls.parent {
		if cls.logger != nil {
			return cls.logger
		}
	}
	return noopLogger{}
}

func (c *Class) effectiveReference() ReferenceResolver {
	for cls := c; cls != nil; cls = cls.parent {
		if cls.reference != nil {
			return cls.reference
		}
	}
	return nil
}

func (c *Class) identityFields() []string {
	for cls := c; cls != nil; cls = cls.parent {
		if len(cls.identity) > 0 {
			return cls.identity
		}
	}
	return nil
}

// allDefaults merges default data along the ancestor chain, child entries
// taking precedence.
func (c *Class) allDefaults() Data {
	var chain []*Class
	for cls := c; cls != nil; cls = cls.parent {
		chain = append(chain, cls)
	}
	var merged Data
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].defaults != nil {
			merged = mergeData(chain[i].defaults, merged)
		}
	}
	return merged
}

// fieldBindings returns the effective resolver list: ancestor registrations
// first, child entries overriding parent entries in place.
func (c *Class) fieldBindings() ([]fieldBinding, error) {
	var chain []*Class
	for cls := c; cls != nil; cls = cls.parent {
		chain = append(chain, cls)
	}

	var merged []fieldBinding
	index := map[string]int{}
	for i := len(chain) - 1; i >= 0; i-- {
		bindings, err := chain[i].fields.bindings()
		if err != nil {
			return nil, err
		}
		for _, binding := range bindings {
			if at, ok := index[binding.field]; ok {
				merged[at] = binding
				continue
			}
			index[binding.field] = len(merged)
			merged = append(merged, binding)
		}
	}
	return merged, nil
}
