package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/karmapos/internal/backup"
	"github.com/roach88/karmapos/internal/history"
	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/prompt"
	"github.com/roach88/karmapos/internal/testutil"
)

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.Local)

// harness runs root commands against one database file.
type harness struct {
	t         *testing.T
	db        string
	backupDir string
	prompter  prompt.Prompter
	clock     *testutil.Clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		t:         t,
		db:        filepath.Join(dir, "karma.db"),
		backupDir: dir,
		prompter:  prompt.Static{Answer: true, Secret: "1234"},
		clock:     testutil.NewClock(testNow),
	}
}

// run executes karma with args and returns stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := newRootCommand(&RootOptions{Prompter: h.prompter, Now: h.clock.Now})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--db", h.db, "--backup-dir", h.backupDir, "--env-file", ""}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// runJSON executes karma --format json and decodes the data field into dest.
func (h *harness) runJSON(dest any, args ...string) error {
	h.t.Helper()
	out, err := h.run(append([]string{"--format", "json"}, args...)...)
	if err != nil {
		return err
	}
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(h.t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(h.t, "ok", resp.Status)
	if dest != nil {
		require.NoError(h.t, json.Unmarshal(resp.Data, dest))
	}
	return nil
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "karma", cmd.Use)
	assert.Contains(t, cmd.Long, "SQLite")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"},
		{"section", "list"}, {"section", "add"}, {"section", "rm"}, {"section", "render"}, {"section", "quick-price"},
		{"item", "list"}, {"item", "add"}, {"item", "rm"},
		{"sell"}, {"book"}, {"service"},
		{"history", "list"}, {"history", "show"}, {"history", "rm"},
		{"report", "today"}, {"report", "days"}, {"report", "range"},
		{"backup", "export"}, {"backup", "import"}, {"backup", "wipe"}, {"backup", "info"},
		{"settings", "show"}, {"settings", "cashier"}, {"settings", "quick-price"},
		{"settings", "password"}, {"settings", "lock-timeout"}, {"settings", "reset-password"},
		{"lock"}, {"unlock"}, {"serve"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(filepath.Join(path...), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, DefaultDB, dbFlag.DefValue)

	yesFlag := cmd.PersistentFlags().Lookup("yes")
	require.NotNil(t, yesFlag)
	assert.Equal(t, "y", yesFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("--format", "xml", "section", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestUnavailableDatabase(t *testing.T) {
	h := newHarness(t)
	h.db = filepath.Join(t.TempDir(), "missing", "dir", "karma.db")

	out, err := h.run("section", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestInit_SeedsOnce(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "with 25 item(s)")

	out, err = h.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "already initialized (25 item(s))")
}

func TestInit_CustomCatalog(t *testing.T) {
	h := newHarness(t)
	catalog := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`cashier:
  name: Amna
  phone: "0911"
quick_price: 15000
sections:
  - id: restaurant
    items:
      - { name: Fool, price: 800 }
`), 0o644))

	var result InitResult
	require.NoError(t, h.runJSON(&result, "init", "--catalog", catalog))
	assert.True(t, result.Seeded)
	assert.Equal(t, 1, result.Items)

	var view SettingsView
	require.NoError(t, h.runJSON(&view, "settings", "show"))
	assert.Equal(t, "Amna", view.Cashier.Name)
	assert.Equal(t, float64(15000), view.QuickPrice)
}

func TestSection_AddListRemove(t *testing.T) {
	h := newHarness(t)

	var spa model.Section
	require.NoError(t, h.runJSON(&spa, "section", "add", "Spa", "--icon", "💆", "--template", "pos"))
	assert.Regexp(t, `^custom_`, spa.ID)

	var item model.Item
	require.NoError(t, h.runJSON(&item, "item", "add", spa.ID, "Massage", "3000"))

	var all []model.Section
	require.NoError(t, h.runJSON(&all, "section", "list"))
	require.Len(t, all, 4)
	assert.Equal(t, spa.ID, all[3].ID)

	var removed RemoveResult
	require.NoError(t, h.runJSON(&removed, "section", "rm", spa.ID))
	assert.Equal(t, int64(1), removed.ItemsDeleted)

	require.NoError(t, h.runJSON(&all, "section", "list"))
	assert.Len(t, all, 3)

	_, err := h.run("item", "list", spa.ID)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSection_RemoveDeclined(t *testing.T) {
	h := newHarness(t)

	var spa model.Section
	require.NoError(t, h.runJSON(&spa, "section", "add", "Spa", "-t", "simple"))

	h.prompter = prompt.Static{Answer: false}
	out, err := h.run("section", "rm", spa.ID)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")

	var all []model.Section
	require.NoError(t, h.runJSON(&all, "section", "list"))
	assert.Len(t, all, 4)
}

func TestSection_BuiltinCannotBeRemoved(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("section", "rm", "cafe")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}

func TestSection_RenderToFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "cafe.html")

	_, err := h.run("section", "render", "cafe", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `data-category="coffee"`)
	assert.Contains(t, string(data), "1,500.00 SDG")
}

func TestSection_QuickPrice(t *testing.T) {
	h := newHarness(t)

	var pitch model.Section
	require.NoError(t, h.runJSON(&pitch, "section", "add", "Pitch B", "-t", "booking"))
	require.NoError(t, h.runJSON(nil, "section", "quick-price", pitch.ID, "12000"))
	require.NoError(t, h.runJSON(nil, "section", "quick-price", "football", "25000"))

	var all []model.Section
	require.NoError(t, h.runJSON(&all, "section", "list"))
	assert.Equal(t, float64(25000), all[2].QuickPrice)
	assert.Equal(t, float64(12000), all[3].QuickPrice)

	_, err := h.run("section", "quick-price", "restaurant", "100")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestItem_AddNeedsKnownCategory(t *testing.T) {
	h := newHarness(t)

	var item model.Item
	require.NoError(t, h.runJSON(&item, "item", "add", "cafe", "Latte", "2000", "--category", "coffee"))
	require.NotNil(t, item.SubCategory)
	assert.Equal(t, "coffee", *item.SubCategory)
	assert.Equal(t, int64(26), item.ID, "ids continue after the seeded catalog")

	_, err := h.run("item", "add", "cafe", "Latte", "2000")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = h.run("item", "add", "cafe", "Latte", "2000", "--category", "soup")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = h.run("item", "add", "restaurant", "Fool", "--", "-5")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestItem_Remove(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.runJSON(nil, "item", "rm", "1"))

	var items []model.Item
	require.NoError(t, h.runJSON(&items, "item", "list", "restaurant"))
	assert.Len(t, items, 9)

	_, err := h.run("item", "rm", "1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSell_IssuesPOSInvoice(t *testing.T) {
	h := newHarness(t)

	// Seeded restaurant items: 1 is 3500, 4 is 1500.
	var inv model.Invoice
	require.NoError(t, h.runJSON(&inv, "sell", "restaurant", "1", "4:2", "1"))

	assert.Equal(t, int64(1), inv.ID)
	assert.Equal(t, model.InvoiceRestaurant, inv.Type)
	assert.Equal(t, float64(2*3500+2*1500), inv.Total)
	require.Len(t, inv.Details.Items, 2)
	assert.Equal(t, 2, inv.Details.Items[0].Quantity)
	assert.Equal(t, 2, inv.Details.Items[1].Quantity)
	assert.True(t, inv.Date.Equal(testNow))

	require.NoError(t, h.runJSON(&inv, "sell", "restaurant", "2"))
	assert.Equal(t, int64(2), inv.ID)
}

func TestSell_Rejects(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
	}{
		{"item of another section", []string{"sell", "cafe", "1"}},
		{"bad quantity", []string{"sell", "restaurant", "1:0"}},
		{"unknown item", []string{"sell", "restaurant", "999"}},
		{"booking section", []string{"sell", "football", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}

	var page history.Page
	require.NoError(t, h.runJSON(&page, "history", "list"))
	assert.Zero(t, page.Count)
}

func TestBook_QuickPriceAndSlot(t *testing.T) {
	h := newHarness(t)

	var inv model.Invoice
	require.NoError(t, h.runJSON(&inv, "book", "football",
		"--slot", "18:00 - 19:00", "--quick", "--field", "Pitch 1", "--customer", "Omar", "--date", "2025-03-14"))

	assert.Equal(t, model.InvoiceFootball, inv.Type)
	assert.Equal(t, float64(20000), inv.Total)
	assert.Equal(t, "18:00 - 19:00", inv.Details.TimeDisplay)
	assert.Equal(t, "Pitch 1", inv.Details.FieldName)
	assert.Equal(t, "Omar", inv.Details.CustomerName)

	local := inv.Date.In(time.Local)
	assert.Equal(t, "2025-03-14 15:00", local.Format("2006-01-02 15:04"))
}

func TestBook_Rejects(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown slot", []string{"book", "football", "--slot", "03:00 - 04:00", "--price", "100"}},
		{"end before start", []string{"book", "football", "--from", "22:00", "--to", "21:00", "--price", "100"}},
		{"zero price", []string{"book", "football", "--slot", "18:00 - 19:00"}},
		{"bad date", []string{"book", "football", "--slot", "18:00 - 19:00", "--price", "100", "--date", "14/03/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestService_DefaultsToSectionName(t *testing.T) {
	h := newHarness(t)

	var wash model.Section
	require.NoError(t, h.runJSON(&wash, "section", "add", "Car wash", "-t", "simple"))

	var inv model.Invoice
	require.NoError(t, h.runJSON(&inv, "service", wash.ID, "--price", "5000"))
	assert.Equal(t, model.InvoiceSimple, inv.Type)
	assert.Equal(t, "Car wash", inv.Details.ServiceName)
	assert.Equal(t, float64(5000), inv.Total)
}

func TestHistory_ListShowRemove(t *testing.T) {
	h := newHarness(t)
	for range 3 {
		require.NoError(t, h.runJSON(nil, "sell", "cafe", "11"))
		h.clock.Advance(time.Minute)
	}

	var page history.Page
	require.NoError(t, h.runJSON(&page, "--page-size", "2", "history", "list", "--page", "2"))
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Invoices, 1)
	assert.Equal(t, int64(1), page.Invoices[0].ID)

	out, err := h.run("history", "show", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice #2")
	assert.Contains(t, out, "Total: 1,500.00 SDG")

	h.prompter = prompt.Static{Secret: "0000"}
	out, err = h.run("history", "rm", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")

	h.prompter = prompt.Static{Secret: "1234"}
	require.NoError(t, h.runJSON(nil, "history", "rm", "2"))

	_, err = h.run("history", "show", "2")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReport_TodayAndRange(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.runJSON(nil, "sell", "restaurant", "1"))
	require.NoError(t, h.runJSON(nil, "book", "football", "--slot", "18:00 - 19:00", "--quick"))

	out, err := h.run("report", "today")
	require.NoError(t, err)
	assert.Contains(t, out, "Report for today 2025-03-10")
	assert.Contains(t, out, "Total: 23,500.00 SDG")

	var r history.Report
	require.NoError(t, h.runJSON(&r, "report", "range", "2025-03-01", "2025-03-10"))
	assert.Len(t, r.Invoices, 2)
	assert.Len(t, r.BySection, 2)

	require.NoError(t, h.runJSON(&r, "report", "days", "7"))
	assert.Equal(t, float64(23500), r.Total)

	_, err = h.run("report", "range", "2025-03-10", "2025-03-01")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = h.run("report", "days", "0")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBackup_ExportImportRoundTrip(t *testing.T) {
	src := newHarness(t)
	require.NoError(t, src.runJSON(nil, "sell", "restaurant", "1"))
	require.NoError(t, src.runJSON(nil, "sell", "restaurant", "2"))

	path := filepath.Join(t.TempDir(), "out.json")
	var info model.BackupInfo
	require.NoError(t, src.runJSON(&info, "backup", "export", "-o", path))
	assert.Equal(t, "out.json", info.Filename)

	dst := newHarness(t)
	require.NoError(t, dst.runJSON(nil, "sell", "cafe", "11"))

	var result backup.MergeResult
	require.NoError(t, dst.runJSON(&result, "backup", "import", path))
	assert.Equal(t, 1, result.InvoicesAdded, "invoice 1 already exists in the destination")
	assert.Equal(t, 1, result.InvoicesSkipped)

	var inv model.Invoice
	require.NoError(t, dst.runJSON(&inv, "sell", "cafe", "11"))
	assert.Equal(t, int64(3), inv.ID, "counter raised to the imported ids")
}

func TestBackup_ImportRejectsCorruptFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"invoices":[{"id":"one"}]}`), 0o644))

	out, err := h.run("--format", "json", "backup", "import", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeImportParse, resp.Error.Code)
}

func TestBackup_DefaultPathAndInfo(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("backup", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "No backup yet")

	var info model.BackupInfo
	require.NoError(t, h.runJSON(&info, "backup", "export"))
	assert.Equal(t, backup.FileName(testNow), info.Filename)
	assert.FileExists(t, filepath.Join(h.backupDir, info.Filename))

	out, err = h.run("backup", "export", "--stdout")
	require.NoError(t, err)
	snap, err := backup.Decode([]byte(out))
	require.NoError(t, err)
	assert.Len(t, snap.Items, 25)
}

func TestBackup_Wipe(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.runJSON(nil, "sell", "restaurant", "1"))

	require.NoError(t, h.runJSON(nil, "backup", "wipe"))

	// The next open seeds the empty database again.
	var page history.Page
	require.NoError(t, h.runJSON(&page, "history", "list"))
	assert.Zero(t, page.Count)

	var items []model.Item
	require.NoError(t, h.runJSON(&items, "item", "list", "restaurant"))
	assert.Len(t, items, 10)
}

func TestSettings_ChangeAndShow(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.runJSON(nil, "settings", "cashier", "--name", "Amna"))
	require.NoError(t, h.runJSON(nil, "settings", "quick-price", "30000"))
	require.NoError(t, h.runJSON(nil, "settings", "lock-timeout", "5"))

	var view SettingsView
	require.NoError(t, h.runJSON(&view, "settings", "show"))
	assert.Equal(t, "Amna", view.Cashier.Name)
	assert.Equal(t, "0123456789", view.Cashier.Phone)
	assert.Equal(t, float64(30000), view.QuickPrice)
	assert.Equal(t, 5, view.LockTimeout)
	assert.False(t, view.Locked)

	_, err := h.run("settings", "lock-timeout", "--", "-1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSettings_PasswordLockUnlock(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("settings", "password", "cashier", "12")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "too short")

	require.NoError(t, h.runJSON(nil, "settings", "password", "cashier", "5678"))
	require.NoError(t, h.runJSON(nil, "lock"))

	// The harness prompter still answers 1234, which is now wrong.
	_, err = h.run("unlock")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	h.prompter = prompt.Static{Answer: true, Secret: "5678"}
	require.NoError(t, h.runJSON(nil, "unlock"))

	var view SettingsView
	require.NoError(t, h.runJSON(&view, "settings", "show"))
	assert.False(t, view.Locked)

	require.NoError(t, h.runJSON(nil, "settings", "reset-password", "cashier"))
	h.prompter = prompt.Static{Answer: true, Secret: "1234"}
	require.NoError(t, h.runJSON(nil, "lock"))
	require.NoError(t, h.runJSON(nil, "unlock"))
}

func TestLock_BlocksCommandsUntilUnlock(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.runJSON(nil, "lock"))

	for _, args := range [][]string{
		{"sell", "restaurant", "1"},
		{"history", "list"},
		{"report", "today"},
		{"backup", "export", "--stdout"},
		{"settings", "quick-price", "25000"},
	} {
		out, err := h.run(args...)
		assert.Equal(t, ExitFailure, GetExitCode(err), args)
		assert.Contains(t, out, "Error [E009]", args)
	}

	var view SettingsView
	require.NoError(t, h.runJSON(&view, "settings", "show"))
	assert.True(t, view.Locked)

	require.NoError(t, h.runJSON(nil, "unlock"))

	var inv model.Invoice
	require.NoError(t, h.runJSON(&inv, "sell", "restaurant", "1"))
	assert.Equal(t, int64(1), inv.ID, "nothing was issued while locked")
}

func TestFlagPrompter(t *testing.T) {
	fallback := prompt.Static{Answer: false, Secret: "fallback"}

	p := flagPrompter{fallback: fallback}
	ok, err := p.Confirm(t.Context(), "?")
	require.NoError(t, err)
	assert.False(t, ok)
	pw, err := p.Password(t.Context(), "?")
	require.NoError(t, err)
	assert.Equal(t, "fallback", pw)

	p = flagPrompter{yes: true, password: "flag", fallback: fallback}
	ok, err = p.Confirm(t.Context(), "?")
	require.NoError(t, err)
	assert.True(t, ok)
	pw, err = p.Password(t.Context(), "?")
	require.NoError(t, err)
	assert.Equal(t, "flag", pw)
}
