//go:build integration

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/internal/syncer"
	"github.com/shopspring/decimal"
)

func registerLedgerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a device "([^"]*)"$`, aDevice)
	sc.Step(`^"([^"]*)" adds debtor "([^"]*)" with phone "([^"]*)"$`, addsDebtor)
	sc.Step(`^"([^"]*)" records a (debt|payment) of (\d+) for "([^"]*)"$`, recordsTransaction)
	sc.Step(`^"([^"]*)" is refused a (debt|payment) of (-?\d+) for "([^"]*)"$`, refusedTransaction)
	sc.Step(`^"([^"]*)" changes the notes of "([^"]*)" to "([^"]*)"$`, changesNotes)
	sc.Step(`^"([^"]*)" deletes debtor "([^"]*)"$`, deletesDebtor)
	sc.Step(`^a moment passes$`, aMomentPasses)
	sc.Step(`^the balance of "([^"]*)" on "([^"]*)" is (-?\d+)$`, theBalanceIs)
	sc.Step(`^the notes of "([^"]*)" on "([^"]*)" are "([^"]*)"$`, theNotesAre)
	sc.Step(`^"([^"]*)" has (\d+) debtors? and (\d+) transactions?$`, hasRecords)
	sc.Step(`^the stats on "([^"]*)" show a total balance of (\d+)$`, theStatsShow)
}

func registerSyncSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a device "([^"]*)" with sync enabled$`, aDeviceWithSync)
	sc.Step(`^a device "([^"]*)" sharing the account of "([^"]*)"$`, aDeviceSharingAccount)
	sc.Step(`^the remote store is unreachable$`, theRemoteIsUnreachable)
	sc.Step(`^the remote store is reachable again$`, theRemoteIsReachable)
	sc.Step(`^"([^"]*)" syncs$`, deviceSyncs)
	sc.Step(`^the sync on "([^"]*)" succeeds with (\d+) uploaded and (\d+) merged$`, theSyncSucceeds)
	sc.Step(`^the sync on "([^"]*)" is declined$`, theSyncIsDeclined)
	sc.Step(`^"([^"]*)" has (\d+) queued changes?$`, hasQueuedChanges)
}

func aDevice(ctx context.Context, name string) error {
	_, err := getWorld(ctx).addDevice(ctx, name)
	return err
}

func aDeviceWithSync(ctx context.Context, name string) error {
	w := getWorld(ctx)
	d, err := w.addDevice(ctx, name)
	if err != nil {
		return err
	}
	if err := w.expect(d, 200, "PUT", "/api/v1/settings/"+model.SettingSyncEnabled, true, nil); err != nil {
		return err
	}
	return d.app.Engine.Init(ctx)
}

func aDeviceSharingAccount(ctx context.Context, name, other string) error {
	w := getWorld(ctx)
	owner, err := w.device(other)
	if err != nil {
		return err
	}
	d, err := w.addDevice(ctx, name)
	if err != nil {
		return err
	}
	if err := w.expect(d, 200, "PUT", "/api/v1/settings/"+model.SettingSyncEnabled, true, nil); err != nil {
		return err
	}
	uid := owner.app.Engine.UserID()
	if err := w.expect(d, 200, "PUT", "/api/v1/settings/"+model.SettingRemoteUserID, uid, nil); err != nil {
		return err
	}
	return d.app.Engine.Init(ctx)
}

func addsDebtor(ctx context.Context, deviceName, name, phone string) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	return w.expect(d, 201, "POST", "/api/v1/debtors", map[string]string{"name": name, "phone": phone}, nil)
}

func recordsTransaction(ctx context.Context, deviceName, typ string, amount int, debtor string) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	id, err := w.debtorID(d, debtor)
	if err != nil {
		return err
	}
	body := map[string]any{"debtorId": id, "type": typ, "amount": amount}
	return w.expect(d, 201, "POST", "/api/v1/transactions", body, nil)
}

func refusedTransaction(ctx context.Context, deviceName, typ string, amount int, debtor string) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	id, err := w.debtorID(d, debtor)
	if err != nil {
		return err
	}
	body := map[string]any{"debtorId": id, "type": typ, "amount": amount}
	return w.expect(d, 400, "POST", "/api/v1/transactions", body, nil)
}

func changesNotes(ctx context.Context, deviceName, debtor, notes string) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	id, err := w.debtorID(d, debtor)
	if err != nil {
		return err
	}
	return w.expect(d, 200, "PATCH", "/api/v1/debtors/"+id, map[string]string{"notes": notes}, nil)
}

func deletesDebtor(ctx context.Context, deviceName, debtor string) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	id, err := w.debtorID(d, debtor)
	if err != nil {
		return err
	}
	return w.expect(d, 204, "DELETE", "/api/v1/debtors/"+id, nil, nil)
}

// aMomentPasses keeps millisecond timestamps of consecutive edits apart.
func aMomentPasses() {
	time.Sleep(5 * time.Millisecond)
}

func theBalanceIs(ctx context.Context, debtor, deviceName string, want int) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	id, err := w.debtorID(d, debtor)
	if err != nil {
		return err
	}
	var res struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := w.expect(d, 200, "GET", "/api/v1/debtors/"+id+"/balance", nil, &res); err != nil {
		return err
	}
	if !res.Balance.Equal(decimal.NewFromInt(int64(want))) {
		return fmt.Errorf("balance of %s on %s: expected %d, got %s", debtor, deviceName, want, res.Balance)
	}
	return nil
}

func theNotesAre(ctx context.Context, debtor, deviceName, want string) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	id, err := w.debtorID(d, debtor)
	if err != nil {
		return err
	}
	var got model.Debtor
	if err := w.expect(d, 200, "GET", "/api/v1/debtors/"+id, nil, &got); err != nil {
		return err
	}
	if got.Notes != want {
		return fmt.Errorf("notes of %s on %s: expected %q, got %q", debtor, deviceName, want, got.Notes)
	}
	return nil
}

func hasRecords(ctx context.Context, deviceName string, debtors, transactions int) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	var ds []model.Debtor
	if err := w.expect(d, 200, "GET", "/api/v1/debtors", nil, &ds); err != nil {
		return err
	}
	var ts []model.Transaction
	if err := w.expect(d, 200, "GET", "/api/v1/transactions", nil, &ts); err != nil {
		return err
	}
	if len(ds) != debtors || len(ts) != transactions {
		return fmt.Errorf("%s holds %d debtors and %d transactions, expected %d and %d",
			deviceName, len(ds), len(ts), debtors, transactions)
	}
	return nil
}

func theStatsShow(ctx context.Context, deviceName string, balance int) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	var stats model.Stats
	if err := w.expect(d, 200, "GET", "/api/v1/stats", nil, &stats); err != nil {
		return err
	}
	if !stats.TotalBalance.Equal(decimal.NewFromInt(int64(balance))) {
		return fmt.Errorf("total balance on %s: expected %d, got %s", deviceName, balance, stats.TotalBalance)
	}
	return nil
}

func probeAll(ctx context.Context, w *world) {
	for _, d := range w.devices {
		d.app.Engine.Probe(ctx)
	}
}

func theRemoteIsUnreachable(ctx context.Context) {
	w := getWorld(ctx)
	w.remote.SetError("connection refused")
	probeAll(ctx, w)
}

func theRemoteIsReachable(ctx context.Context) {
	w := getWorld(ctx)
	w.remote.SetError("")
	probeAll(ctx, w)
}

func deviceSyncs(ctx context.Context, deviceName string) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	_, err = w.call(d, "POST", "/api/v1/sync", nil)
	return err
}

func lastSync(w *world, deviceName string) (*response, *syncer.Result, error) {
	res, ok := w.last[deviceName]
	if !ok {
		return nil, nil, fmt.Errorf("%s has not synced", deviceName)
	}
	var result syncer.Result
	if err := json.Unmarshal(res.body, &result); err != nil {
		return nil, nil, fmt.Errorf("sync response on %s: %w: %s", deviceName, err, res.body)
	}
	return res, &result, nil
}

func theSyncSucceeds(ctx context.Context, deviceName string, uploaded, merged int) error {
	res, result, err := lastSync(getWorld(ctx), deviceName)
	if err != nil {
		return err
	}
	if res.status != 200 || !result.Success {
		return fmt.Errorf("sync on %s failed with status %d: %s", deviceName, res.status, res.body)
	}
	if result.Uploaded != uploaded || result.Merged != merged {
		return fmt.Errorf("sync on %s: expected %d uploaded and %d merged, got %d and %d",
			deviceName, uploaded, merged, result.Uploaded, result.Merged)
	}
	return nil
}

func theSyncIsDeclined(ctx context.Context, deviceName string) error {
	res, result, err := lastSync(getWorld(ctx), deviceName)
	if err != nil {
		return err
	}
	if res.status != 409 || result.Success {
		return fmt.Errorf("sync on %s: expected a decline, got status %d: %s", deviceName, res.status, res.body)
	}
	return nil
}

func hasQueuedChanges(ctx context.Context, deviceName string, want int) error {
	w := getWorld(ctx)
	d, err := w.device(deviceName)
	if err != nil {
		return err
	}
	var st syncer.Status
	if err := w.expect(d, 200, "GET", "/api/v1/sync/status", nil, &st); err != nil {
		return err
	}
	if st.QueueLength != want {
		return fmt.Errorf("%s has %d queued changes, expected %d", deviceName, st.QueueLength, want)
	}
	return nil
}
