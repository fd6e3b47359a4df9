//go:build integration

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cucumber/godog"
	"github.com/krarar/debt-manager/internal/app"
	"github.com/krarar/debt-manager/internal/config"
	"github.com/krarar/debt-manager/internal/handlers"
	"github.com/krarar/debt-manager/internal/model"
	xhttp "github.com/krarar/debt-manager/pkg/http"
	"github.com/krarar/debt-manager/pkg/redis"
	"github.com/krarar/debt-manager/pkg/store"
	"github.com/valyala/fasthttp"
)

// device is one installation: its own local store and API, talking to the
// shared remote store.
type device struct {
	name    string
	app     *app.App
	handler xhttp.RequestHandler
}

type response struct {
	status int
	body   []byte
}

// world holds the state of one scenario.
type world struct {
	remote  *miniredis.Miniredis
	devices map[string]*device
	last    map[string]*response
}

type worldKey struct{}

func getWorld(ctx context.Context) *world {
	return ctx.Value(worldKey{}).(*world)
}

func newWorld() (*world, error) {
	mr, err := miniredis.Run()
	if err != nil {
		return nil, err
	}
	return &world{
		remote:  mr,
		devices: map[string]*device{},
		last:    map[string]*response{},
	}, nil
}

func (w *world) close() {
	for _, d := range w.devices {
		d.app.Close()
	}
	w.remote.Close()
}

func (w *world) addDevice(ctx context.Context, name string) (*device, error) {
	db, err := store.Open(store.Config{Path: ":memory:"})
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, db); err != nil {
		return nil, err
	}
	adapter := redis.OpenRedisAdapter(fmt.Sprintf("e2e-%s-%s", name, w.remote.Addr()), "", &redis.Options{
		Addrs: []string{w.remote.Addr()},
	})
	a := app.Wire(db, adapter, &config.Config{
		SyncMaxRetries: 3,
		SyncDebounce:   time.Hour,
		SyncLockTTL:    5 * time.Second,
	})

	r := xhttp.CreateDefaultRouter()
	g := r.Group("/api/v1")
	handlers.RegisterLedgerRoutes(g, handlers.NewLedgerHandler(a.Ledger))
	handlers.RegisterSyncRoutes(g, handlers.NewSyncHandler(a.Engine))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(a.DB, a.Engine))

	d := &device{name: name, app: a, handler: r.Handler}
	w.devices[name] = d
	return d, nil
}

func (w *world) device(name string) (*device, error) {
	d, ok := w.devices[name]
	if !ok {
		return nil, fmt.Errorf("unknown device %q", name)
	}
	return d, nil
}

// call runs one API request on the device and remembers the response.
func (w *world) call(d *device, method, path string, body any) (*response, error) {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req.SetBody(raw)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	d.handler(ctx)

	res := &response{
		status: ctx.Response.StatusCode(),
		body:   append([]byte(nil), ctx.Response.Body()...),
	}
	w.last[d.name] = res
	return res, nil
}

func (w *world) expect(d *device, status int, method, path string, body any, out any) error {
	res, err := w.call(d, method, path, body)
	if err != nil {
		return err
	}
	if res.status != status {
		return fmt.Errorf("%s %s on %s: expected status %d, got %d: %s", method, path, d.name, status, res.status, res.body)
	}
	if out != nil {
		return json.Unmarshal(res.body, out)
	}
	return nil
}

// debtorID finds a debtor by name through the device's API.
func (w *world) debtorID(d *device, name string) (string, error) {
	var debtors []model.Debtor
	if err := w.expect(d, 200, "GET", "/api/v1/debtors", nil, &debtors); err != nil {
		return "", err
	}
	for _, debtor := range debtors {
		if debtor.Name == name {
			return debtor.ID, nil
		}
	}
	return "", fmt.Errorf("debtor %q not found on %s", name, d.name)
}

func InitializeScenario(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w, err := newWorld()
		if err != nil {
			return ctx, err
		}
		return context.WithValue(ctx, worldKey{}, w), nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if w, ok := ctx.Value(worldKey{}).(*world); ok {
			w.close()
		}
		return ctx, nil
	})

	registerLedgerSteps(sc)
	registerSyncSteps(sc)
}
