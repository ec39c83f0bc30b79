package browser

import (
	"context"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/storecheck/storecheck/internal/dom"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.defaults()
	assert.Equal(t, ModeHeadless, cfg.Mode)
	assert.Equal(t, 1920, cfg.ViewportWidth)
	assert.Equal(t, 1080, cfg.ViewportHeight)
	assert.Equal(t, int64(1<<30), cfg.MemoryLimit)
	assert.Equal(t, 4*time.Hour, cfg.RecycleInterval)
	assert.Equal(t, ":99", cfg.XvfbDisplay)
	assert.NotNil(t, cfg.Logger)
}

func TestLifecycle(t *testing.T) {
	assert.Equal(t, proto.PageLifecycleEventNameNetworkAlmostIdle, lifecycle(dom.WaitNetworkIdle))
	assert.Equal(t, proto.PageLifecycleEventNameDOMContentLoaded, lifecycle(dom.WaitDOMContentLoaded))
	assert.Equal(t, proto.PageLifecycleEventNameLoad, lifecycle(dom.WaitLoad))
	assert.Equal(t, proto.PageLifecycleEventNameNetworkAlmostIdle, lifecycle(""))
}

func TestBlockable(t *testing.T) {
	assert.True(t, Blockable("fonts"))
	assert.True(t, Blockable("Media"))
	assert.False(t, Blockable("images"))
	assert.False(t, Blockable("stylesheets"))
}

func TestClosedManager(t *testing.T) {
	m := NewManager(Config{})
	require.NoError(t, m.Close())

	_, err := m.NewTab(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Start(context.Background()), ErrClosed)
	assert.ErrorIs(t, m.Recycle(), ErrClosed)
}

func TestNewTabBeforeStart(t *testing.T) {
	m := NewManager(Config{})
	_, err := m.NewTab(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrClosed)
	assert.Zero(t, m.active.Load(), "failed NewTab holds no reservation")
}

func TestRecycleRefusedWhileTabsOpen(t *testing.T) {
	m := NewManager(Config{})
	m.active.Add(1)

	assert.ErrorIs(t, m.Recycle(), ErrTabsOpen)

	m.tabClosed()
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Recycle(), ErrClosed)
}

func TestConsoleText(t *testing.T) {
	args := []*proto.RuntimeRemoteObject{
		nil,
		{Type: proto.RuntimeRemoteObjectTypeObject, Description: "TypeError: x is undefined"},
	}
	assert.Equal(t, "TypeError: x is undefined", consoleText(args))
}

func TestStackURL(t *testing.T) {
	assert.Empty(t, stackURL(nil))
	assert.Empty(t, stackURL(&proto.RuntimeStackTrace{}))
	st := &proto.RuntimeStackTrace{CallFrames: []*proto.RuntimeCallFrame{{URL: "https://shop.test/app.js"}}}
	assert.Equal(t, "https://shop.test/app.js", stackURL(st))
}
