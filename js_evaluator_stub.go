//go:build !js_eval

package fixtures

// NewJSEvaluator returns nil without the js_eval build tag. A class handed
// the nil evaluator falls back to the default expr engine for its
// expression-backed field resolvers.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
