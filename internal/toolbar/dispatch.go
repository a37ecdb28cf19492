// ABOUTME: Ordered dispatch of a lifecycle hook across the request's sub-toolbars
// ABOUTME: Core sub-toolbars run first; the first response or error stops the loop

package toolbar

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/2389/cms-toolbar/internal/i18n"
)

// Hook names a sub-toolbar lifecycle method.
type Hook string

const (
	HookPopulate             Hook = "populate"
	HookPostTemplatePopulate Hook = "post_template_populate"
	HookRequest              Hook = "request_hook"
)

func (h Hook) call(ctx context.Context, sub SubToolbar) (http.Handler, error) {
	switch h {
	case HookPopulate:
		return sub.Populate(ctx)
	case HookPostTemplatePopulate:
		return sub.PostTemplatePopulate(ctx)
	case HookRequest:
		return sub.RequestHook(ctx)
	}
	return nil, fmt.Errorf("unknown hook %q", h)
}

// dispatchOrder returns the core keys that are present, then every other key
// in registry order.
func (t *Toolbar) dispatchOrder() []string {
	keys := make([]string, 0, len(t.order))
	for _, key := range coreKeys {
		if _, ok := t.toolbars[key]; ok {
			keys = append(keys, key)
		}
	}
	for _, key := range t.order {
		if !slices.Contains(coreKeys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// dispatch runs hook on every sub-toolbar with the toolbar language forced
// into ctx. It returns the first non-nil response.
func (t *Toolbar) dispatch(ctx context.Context, hook Hook) (http.Handler, error) {
	ctx = i18n.WithLanguage(ctx, t.ToolbarLanguage)
	metrics := t.deps.Metrics
	tracer := tracerOf(t.deps)

	ctx, span := startDispatchSpan(ctx, tracer, hook, t.ToolbarLanguage)
	start := time.Now()
	var dispatchErr error
	defer func() {
		metrics.observeDispatch(hook, time.Since(start))
		endSpan(span, dispatchErr)
	}()

	for _, key := range t.dispatchOrder() {
		resp, err := t.callHook(ctx, tracer, hook, key)
		if err != nil {
			metrics.countHook(hook, key, outcomeError)
			dispatchErr = fmt.Errorf("toolbar %s %s: %w", key, hook, err)
			return nil, dispatchErr
		}
		if resp != nil {
			metrics.countHook(hook, key, outcomeResponse)
			span.SetAttributes(attribute.String("toolbar.responder", key))
			t.logger.Debug("dispatch short-circuited", "hook", string(hook), "toolbar", key)
			return resp, nil
		}
		metrics.countHook(hook, key, outcomeOK)
	}
	return nil, nil
}

// callHook runs hook on one sub-toolbar inside its own span.
func (t *Toolbar) callHook(ctx context.Context, tracer trace.Tracer, hook Hook, key string) (http.Handler, error) {
	ctx, span := startHookSpan(ctx, tracer, hook, key)
	resp, err := hook.call(ctx, t.toolbars[key])
	span.SetAttributes(attribute.Bool("toolbar.responded", resp != nil))
	endSpan(span, err)
	return resp, err
}
