package asyncmux

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/flashmux/internal/infrastructure/mqtt"
	"github.com/nerrad567/flashmux/internal/strobe"
	"github.com/nerrad567/flashmux/internal/topology"
)

// ispYAML routes two flashes through one async mux.
const ispYAML = `
isp: &isp
  compatible: ["vendor,isp"]

isp-mux: &isp_mux
  compatible: "vendor,isp-mux"

isp-mux-link: &isp_link
  mux-async: *isp_mux

led-a:
  gate-external-strobe0:
    strobe-provider: *isp
    mux: *isp_link
    mux-line-id: 1

led-b:
  gate-external-strobe0:
    mux: *isp_link
    mux-line-id: 2
`

type published struct {
	topic   string
	payload []byte
	qos     byte
}

// fakeBus records publishes and routes Deliver to subscribed handlers.
type fakeBus struct {
	mu         sync.Mutex
	published  []published
	handlers   map[string]mqtt.MessageHandler
	publishErr error
	subErr     error
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]mqtt.MessageHandler)}
}

func (b *fakeBus) Publish(topic string, payload []byte, qos byte, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, published{topic: topic, payload: payload, qos: qos})
	return nil
}

func (b *fakeBus) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subErr != nil {
		return b.subErr
	}
	b.handlers[topic] = handler
	return nil
}

func (b *fakeBus) Unsubscribe(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[topic]; !ok {
		return errors.New("not subscribed")
	}
	delete(b.handlers, topic)
	return nil
}

func (b *fakeBus) Deliver(t *testing.T, topic, payload string) error {
	t.Helper()
	b.mu.Lock()
	h, ok := b.handlers[topic]
	b.mu.Unlock()
	if !ok {
		t.Fatalf("no handler for %s", topic)
	}
	return h(topic, []byte(payload))
}

func (b *fakeBus) messages() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.published...)
}

// flash is a minimal strobe.Device.
type flash struct {
	name     string
	data     strobe.Data
	triggers int
}

func (f *flash) Name() string                 { return f.name }
func (f *flash) StrobeData() *strobe.Data     { return &f.data }
func (f *flash) TriggerSoftwareStrobe() error { f.triggers++; return nil }
func (f *flash) StrobeTimeout() time.Duration { return 0 }
func (f *flash) ClearExternalStrobe()         {}

func lookup(t *testing.T, tree *topology.Tree, path string) *topology.Node {
	t.Helper()
	node, err := tree.Lookup(path)
	if err != nil {
		t.Fatalf("Lookup(%s) error = %v", path, err)
	}
	return node
}

type env struct {
	tree   *topology.Tree
	mgr    *strobe.Manager
	bus    *fakeBus
	bridge *Bridge
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tree, err := topology.Parse([]byte(ispYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	mgr := strobe.NewManager(nil)
	bus := newFakeBus()
	bridge := NewBridge(mgr, bus)
	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return &env{tree: tree, mgr: mgr, bus: bus, bridge: bridge}
}

func (e *env) register(t *testing.T, path string) *flash {
	t.Helper()
	f := &flash{name: path}
	if err := e.mgr.RegisterDevice(f, lookup(t, e.tree, path)); err != nil {
		t.Fatalf("RegisterDevice(%s) error = %v", path, err)
	}
	return f
}
