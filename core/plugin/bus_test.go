package plugin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/pkg/async"
)

type target struct {
	name    string
	plugins []any
}

func (t *target) Plugins() []any { return t.plugins }

type otherTarget struct{ plugins []any }

func (t *otherTarget) Plugins() []any { return t.plugins }

type recorder struct {
	id    string
	calls *[]string
}

func (r *recorder) ProcessRequest(_ context.Context, req *message.Request) (plugin.Result, error) {
	*r.calls = append(*r.calls, r.id+":"+req.Path())
	return plugin.Unchanged(), nil
}

type rewriter struct {
	to    string
	calls *[]string
}

func (r *rewriter) ProcessRequest(_ context.Context, req *message.Request) (plugin.Result, error) {
	*r.calls = append(*r.calls, "rewrite:"+req.Path())
	next := req.Clone()
	next.URL.Path = r.to
	return plugin.Replace(next), nil
}

type redoer struct{}

func (redoer) ProcessRequest(_ context.Context, req *message.Request) (plugin.Result, error) {
	return plugin.Redo(req), nil
}

type errorReplacer struct{ status int }

func (e errorReplacer) HandleError(context.Context, *message.Error) (plugin.Result, error) {
	return plugin.Replace(message.NewResponse(e.status, nil)), nil
}

type errorPasser struct{}

func (errorPasser) HandleError(context.Context, *message.Error) (plugin.Result, error) {
	return plugin.Unchanged(), nil
}

type failing struct{}

func (failing) ProcessRequest(context.Context, *message.Request) (plugin.Result, error) {
	return plugin.Unchanged(), errors.New("plugin failed")
}

func newReq(t *testing.T, path string) *message.Request {
	t.Helper()
	req, err := message.NewRequest("GET", path, nil)
	require.NoError(t, err)
	return req
}

func TestEmit_NearestTypeWins(t *testing.T) {
	t.Parallel()

	var calls []string
	op := &target{plugins: []any{&recorder{id: "op", calls: &calls}}}
	group := &target{plugins: []any{&recorder{id: "group", calls: &calls}, &rewriter{to: "/x", calls: &calls}}}

	s := plugin.NewBus(nil, nil).Session()
	res, err := s.Emit(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/a"), op, group)
	require.NoError(t, err)

	assert.Equal(t, []string{"op:/a", "rewrite:/a"}, calls)
	v, ok := res.Value()
	require.True(t, ok)
	assert.Equal(t, "/x", v.(*message.Request).Path())
}

func TestEmit_StreamingThreadsValues(t *testing.T) {
	t.Parallel()

	var calls []string
	op := &target{plugins: []any{&rewriter{to: "/b", calls: &calls}, &recorder{id: "after", calls: &calls}}}

	res, err := plugin.NewBus(nil, nil).Session().Emit(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/a"), op)
	require.NoError(t, err)
	assert.Equal(t, []string{"rewrite:/a", "after:/b"}, calls)

	v, ok := res.Value()
	require.True(t, ok)
	assert.Equal(t, "/b", v.(*message.Request).Path())
}

func TestEmit_RedoStopsEvent(t *testing.T) {
	t.Parallel()

	var calls []string
	op := &target{plugins: []any{redoer{}, &recorder{id: "never", calls: &calls}}}

	res, err := plugin.NewBus(nil, nil).Session().Emit(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/a"), op)
	require.NoError(t, err)
	assert.True(t, res.IsRedo())
	assert.Empty(t, calls)
}

func TestEmit_NonStreamingKeepsLastReplacement(t *testing.T) {
	t.Parallel()

	op := &target{plugins: []any{errorReplacer{status: 418}, errorPasser{}}}
	e := message.NewError(errors.New("boom"), newReq(t, "/"))

	res, err := plugin.NewBus(nil, nil).Session().Emit(context.Background(), plugin.HandleError, plugin.ModeBlocking, e, op)
	require.NoError(t, err)
	v, ok := res.Value()
	require.True(t, ok)
	assert.Equal(t, 418, v.(*message.Response).Status)
}

func TestEmit_Errors(t *testing.T) {
	t.Parallel()

	op := &target{plugins: []any{failing{}}}
	_, err := plugin.NewBus(nil, nil).Session().Emit(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/"), op)
	assert.EqualError(t, err, "plugin failed")
}

func TestEmit_NoHandlers(t *testing.T) {
	t.Parallel()

	var nilTarget *target
	s := plugin.NewBus(nil, nil).Session()
	res, err := s.Emit(context.Background(), plugin.ProcessResponse, plugin.ModeBlocking, message.NoContent(), nilTarget, &target{plugins: []any{errorPasser{}}})
	require.NoError(t, err)
	assert.True(t, res.IsUnchanged())
	assert.False(t, s.Handles(plugin.ProcessResponse, plugin.ModeBlocking, &target{plugins: []any{errorPasser{}}}))
	assert.True(t, s.Handles(plugin.HandleError, plugin.ModeBlocking, &target{plugins: []any{errorPasser{}}}))
}

func TestRegistry_Bindings(t *testing.T) {
	t.Parallel()

	var calls []string
	reg := plugin.NewRegistry()
	plugin.Bind[*target](reg, plugin.ProcessRequest, func(ctx context.Context, p *recorder, arg any) (plugin.Result, error) {
		calls = append(calls, "bound:"+p.id)
		return plugin.Unchanged(), nil
	})
	plugin.BindTarget(reg, plugin.ProcessRequest, func(ctx context.Context, tgt *otherTarget, p *rewriter, arg any) (plugin.Result, error) {
		calls = append(calls, "bound-target:"+p.to)
		return plugin.Unchanged(), nil
	})
	assert.Equal(t, 2, reg.Len())

	bus := plugin.NewBus(reg, nil)

	op := &target{plugins: []any{&recorder{id: "op", calls: &calls}}}
	group := &otherTarget{plugins: []any{&recorder{id: "group", calls: &calls}, &rewriter{to: "/z", calls: &calls}}}

	_, err := bus.Session().Emit(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/a"), op, group)
	require.NoError(t, err)
	assert.Equal(t, []string{"bound:op", "bound-target:/z"}, calls)
}

func TestRegistry_FrozenByBus(t *testing.T) {
	t.Parallel()

	reg := plugin.NewRegistry()
	assert.False(t, reg.Frozen())

	plugin.NewBus(reg, nil)
	assert.True(t, reg.Frozen())

	assert.PanicsWithValue(t, plugin.ErrRegistryFrozen, func() {
		plugin.Bind[*target](reg, plugin.ProcessRequest, func(context.Context, *recorder, any) (plugin.Result, error) {
			return plugin.Unchanged(), nil
		})
	})
	assert.Equal(t, 0, reg.Len())

	var nilReg *plugin.Registry
	assert.NotPanics(t, nilReg.Freeze)
	assert.False(t, nilReg.Frozen())
}

type stateful struct {
	instances *int
	seen      int
}

func (s *stateful) NewInstance() any {
	*s.instances++
	return &stateful{instances: s.instances}
}

func (s *stateful) ProcessRequest(context.Context, *message.Request) (plugin.Result, error) {
	s.seen++
	return plugin.Replace(s.seen), nil
}

func TestSession_Instances(t *testing.T) {
	t.Parallel()

	var created int
	op := &target{plugins: []any{&stateful{instances: &created}}}
	bus := plugin.NewBus(nil, nil)

	s1 := bus.Session()
	for i := 1; i <= 3; i++ {
		res, err := s1.Emit(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/"), op)
		require.NoError(t, err)
		v, _ := res.Value()
		assert.Equal(t, i, v)
	}

	res, err := bus.Session().Emit(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/"), op)
	require.NoError(t, err)
	v, _ := res.Value()
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, created)
}

type dual struct{ calls *[]string }

func (d dual) ProcessRequest(context.Context, *message.Request) (plugin.Result, error) {
	*d.calls = append(*d.calls, "blocking")
	return plugin.Unchanged(), nil
}

func (d dual) ProcessRequestAsync(ctx context.Context, _ *message.Request) *async.Future[plugin.Result] {
	*d.calls = append(*d.calls, "async")
	return async.Resolved(plugin.Unchanged(), nil)
}

type asyncOnly struct{ calls *[]string }

func (a asyncOnly) ProcessRequestAsync(ctx context.Context, _ *message.Request) *async.Future[plugin.Result] {
	return async.Go(ctx, func(context.Context) (plugin.Result, error) {
		return plugin.Replace("from-async"), nil
	})
}

func TestEmit_Modes(t *testing.T) {
	t.Parallel()

	var calls []string
	s := plugin.NewBus(nil, nil).Session()
	op := &target{plugins: []any{dual{calls: &calls}}}

	_, err := s.Emit(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/"), op)
	require.NoError(t, err)
	_, err = s.Emit(context.Background(), plugin.ProcessRequest, plugin.ModeCooperative, newReq(t, "/"), op)
	require.NoError(t, err)
	assert.Equal(t, []string{"blocking", "async"}, calls)

	res, err := s.Emit(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/"), &target{plugins: []any{asyncOnly{}}})
	require.NoError(t, err)
	v, _ := res.Value()
	assert.Equal(t, "from-async", v)

	coopOnly := plugin.NewEvent("coop_only", func(p any) plugin.Callback {
		return func(context.Context, any) (plugin.Result, error) { return plugin.Replace("ran"), nil }
	}, plugin.OnlyIn(plugin.ModeCooperative))

	res, err = s.Emit(context.Background(), coopOnly, plugin.ModeBlocking, nil, op)
	require.NoError(t, err)
	assert.True(t, res.IsUnchanged())

	res, err = s.Emit(context.Background(), coopOnly, plugin.ModeCooperative, nil, op)
	require.NoError(t, err)
	v, _ = res.Value()
	assert.Equal(t, "ran", v)
	assert.Equal(t, "cooperative", plugin.ModeCooperative.String())
}

func TestHas(t *testing.T) {
	t.Parallel()

	assert.True(t, plugin.Has(&recorder{}))
	assert.True(t, plugin.Has(errorPasser{}))
	assert.True(t, plugin.Has(asyncOnly{}))
	assert.False(t, plugin.Has(struct{}{}))
}

type bindingOnly struct{}

func TestSession_EmitTo(t *testing.T) {
	t.Parallel()

	var calls []string
	reg := plugin.NewRegistry()
	plugin.Bind[*otherTarget](reg, plugin.ProcessRequest, func(ctx context.Context, p bindingOnly, arg any) (plugin.Result, error) {
		calls = append(calls, "binding-only")
		return plugin.Unchanged(), nil
	})
	bus := plugin.NewBus(reg, nil)

	rec := &recorder{id: "one", calls: &calls}
	tgt := &target{plugins: []any{rec, &recorder{id: "two", calls: &calls}}}

	res, err := bus.Session().EmitTo(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/a"), tgt, rec)
	require.NoError(t, err)
	assert.True(t, res.IsUnchanged())
	assert.Equal(t, []string{"one:/a"}, calls)

	other := &otherTarget{plugins: []any{bindingOnly{}}}
	_, err = bus.Session().EmitTo(context.Background(), plugin.ProcessRequest, plugin.ModeBlocking, newReq(t, "/b"), other, bindingOnly{})
	require.NoError(t, err)
	assert.Equal(t, []string{"one:/a", "binding-only"}, calls)

	assert.True(t, bus.Applies(tgt, rec))
	assert.True(t, bus.Applies(other, bindingOnly{}))
	assert.False(t, bus.Applies(tgt, bindingOnly{}))
}
