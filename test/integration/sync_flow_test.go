package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/config"
	"github.com/grachmannico95/einvoice-sync/internal/eventbus"
	"github.com/grachmannico95/einvoice-sync/internal/handler"
	"github.com/grachmannico95/einvoice-sync/internal/scheduler"
	"github.com/grachmannico95/einvoice-sync/internal/server"
	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/grachmannico95/einvoice-sync/internal/storage"
	"github.com/grachmannico95/einvoice-sync/internal/taxbureau"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const carrierListResponse = `{
  "code": "200",
  "msg": "執行成功",
  "invNum": [
    {"invNum": "AB11111111", "invDate": "2024-03-01", "sellerName": "統一超商股份有限公司", "amount": "120"},
    {"invNum": "AB22222222", "invDate": "2024-03-02", "sellerName": "台灣中油股份有限公司", "amount": "1,050"},
    {"invNum": "AB33333333", "invDate": "2024-03-03", "sellerName": "大潤發", "amount": "300"}
  ]
}`

const invoiceDetailResponse = `{
  "code": "200",
  "msg": "執行成功",
  "invNum": %q,
  "invDate": "2024-03-01",
  "sellerName": "全家便利商店",
  "amount": "105",
  "invDetail": [
    {"rowNum": "1", "description": "御飯糰", "quantity": "3", "unitPrice": "35", "amount": "105"}
  ]
}`

// fakeTaxBureau serves canned list and detail responses. While failing is set it
// answers 503 instead.
type fakeTaxBureau struct {
	failing atomic.Bool
	calls   atomic.Int32
}

func (f *fakeTaxBureau) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	if f.failing.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Query().Get("action") {
	case "qryWinningInv":
		_, _ = io.WriteString(w, carrierListResponse)
	case "qryInvDetail":
		_, _ = fmt.Fprintf(w, invoiceDetailResponse, r.URL.Query().Get("invNum"))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

type testEnv struct {
	srv      *httptest.Server
	upstream *fakeTaxBureau
	bus      eventbus.EventBus
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	log := logger.NewNop()
	repo := storage.NewMemoryStore()

	bus := eventbus.New(log, &eventbus.Config{
		ChannelBuffer:  100,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	})
	historyConsumer := eventbus.NewSyncHistoryConsumer(repo, log, 1)
	require.NoError(t, bus.Subscribe(eventbus.EventTypeSyncCompleted, historyConsumer))
	require.NoError(t, bus.Subscribe(eventbus.EventTypeSyncFailed, historyConsumer))
	require.NoError(t, bus.Start(context.Background()))

	upstream := &fakeTaxBureau{}
	upstreamSrv := httptest.NewServer(upstream)

	client := taxbureau.NewClient(taxbureau.Config{
		BaseURL:        upstreamSrv.URL,
		APIKey:         "test-app-id",
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
	}, log)

	categorizer, err := service.LoadCategorizer("")
	require.NoError(t, err)

	users := service.NewUserResolver(repo, "local", log)
	carriers := service.NewCarrierService(repo, users, log)
	syncService := service.NewInvoiceSyncService(client, carriers, repo, categorizer, log, service.WithPublisher(bus))
	importer := service.NewInvoiceImporter(carriers, syncService, 0.05, log)
	lookup := service.NewInvoiceLookupService(client, repo, categorizer, log)
	ledger := service.NewLedgerService(repo, repo, carriers, users, log)
	autoSync := scheduler.New(syncService, log, scheduler.Config{})

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
	}

	srv := server.New(cfg, log, server.Handlers{
		Health:      handler.NewHealthHandler(syncService),
		Carrier:     handler.NewCarrierHandler(carriers, log),
		Sync:        handler.NewSyncHandler(syncService, ledger, autoSync, log),
		Transaction: handler.NewTransactionHandler(ledger, log),
		Invoice:     handler.NewInvoiceHandler(lookup, importer, 1<<20, log),
	})

	testServer := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		autoSync.DisableAutoSync()
		testServer.Close()
		upstreamSrv.Close()
		_ = bus.Shutdown(context.Background())
	})

	return &testEnv{srv: testServer, upstream: upstream, bus: bus}
}

func TestSyncFlow(t *testing.T) {
	env := setupTestServer(t)

	carrier := doJSON(t, http.MethodPost, env.srv.URL+"/carriers", map[string]interface{}{
		"type":       "mobile_barcode",
		"number":     "/abc1234",
		"is_default": true,
	}, http.StatusCreated)
	assert.Equal(t, "/ABC1234", carrier["number"])
	carrierID := carrier["id"].(string)

	first := doJSON(t, http.MethodPost, env.srv.URL+"/sync", map[string]string{}, http.StatusOK)
	assert.Equal(t, float64(3), first["fetched"])
	assert.Equal(t, float64(3), first["created"])
	assert.Equal(t, carrierID, first["carrier_id"])

	second := doJSON(t, http.MethodPost, env.srv.URL+"/sync", map[string]string{
		"carrier_id": carrierID,
		"start_date": "2024-03-01",
		"end_date":   "2024-03-31",
	}, http.StatusOK)
	assert.Equal(t, float64(0), second["created"])
	assert.Equal(t, float64(3), second["duplicates"])

	txs := doJSON(t, http.MethodGet, env.srv.URL+"/transactions?page=1&per_page=2", nil, http.StatusOK)
	assert.Equal(t, float64(3), txs["total"])
	assert.Len(t, txs["items"], 2)

	status := doJSON(t, http.MethodGet, env.srv.URL+"/sync/status", nil, http.StatusOK)
	assert.Equal(t, false, status["is_syncing"])
	assert.NotNil(t, status["last_sync_at"])

	assert.Eventually(t, func() bool {
		history := doJSON(t, http.MethodGet, env.srv.URL+"/sync/history", nil, http.StatusOK)
		return history["total"] == float64(2)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSyncFlow_UpstreamFailure(t *testing.T) {
	env := setupTestServer(t)

	doJSON(t, http.MethodPost, env.srv.URL+"/carriers", map[string]interface{}{
		"type":   "mobile_barcode",
		"number": "/ABC1234",
	}, http.StatusCreated)

	env.upstream.failing.Store(true)
	resp := doJSON(t, http.MethodPost, env.srv.URL+"/sync", map[string]string{}, http.StatusBadGateway)
	assert.Contains(t, resp["error"], "503")

	// HTTP errors are not retried
	assert.Equal(t, int32(1), env.upstream.calls.Load())

	status := doJSON(t, http.MethodGet, env.srv.URL+"/sync/status", nil, http.StatusOK)
	assert.Contains(t, status["last_error"], "503")

	txs := doJSON(t, http.MethodGet, env.srv.URL+"/transactions", nil, http.StatusOK)
	assert.Equal(t, float64(0), txs["total"])

	env.upstream.failing.Store(false)
	doJSON(t, http.MethodPost, env.srv.URL+"/sync", map[string]string{}, http.StatusOK)

	status = doJSON(t, http.MethodGet, env.srv.URL+"/sync/status", nil, http.StatusOK)
	assert.Empty(t, status["last_error"])
}

func TestSyncFlow_NoCarrier(t *testing.T) {
	env := setupTestServer(t)

	doJSON(t, http.MethodPost, env.srv.URL+"/sync", map[string]string{}, http.StatusNotFound)
	doJSON(t, http.MethodPost, env.srv.URL+"/sync", map[string]string{
		"start_date": "2024-03-31",
		"end_date":   "2024-03-01",
	}, http.StatusNotFound)
	assert.Equal(t, int32(0), env.upstream.calls.Load())
}

func TestCarrierLifecycle(t *testing.T) {
	env := setupTestServer(t)
	url := env.srv.URL + "/carriers"

	first := doJSON(t, http.MethodPost, url, map[string]interface{}{"type": "mobile_barcode", "number": "/AAA1111"}, http.StatusCreated)
	second := doJSON(t, http.MethodPost, url, map[string]interface{}{"type": "mobile_barcode", "number": "/BBB2222", "is_default": true}, http.StatusCreated)

	doJSON(t, http.MethodPost, url, map[string]interface{}{"type": "mobile_barcode", "number": "/aaa1111"}, http.StatusConflict)
	doJSON(t, http.MethodPost, url, map[string]interface{}{"type": "mobile_barcode", "number": "AAA1111"}, http.StatusBadRequest)

	updated := doJSON(t, http.MethodPut, url+"/"+first["id"].(string)+"/default", nil, http.StatusOK)
	assert.Equal(t, true, updated["is_default"])

	list := doJSON(t, http.MethodGet, url, nil, http.StatusOK)
	items := list["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, first["id"], items[0].(map[string]interface{})["id"])

	deleted := doJSON(t, http.MethodDelete, url+"/"+first["id"].(string), nil, http.StatusOK)
	next := deleted["default_carrier"].(map[string]interface{})
	assert.Equal(t, second["id"], next["id"])

	doJSON(t, http.MethodDelete, url+"/"+first["id"].(string), nil, http.StatusNotFound)
}

func TestCarriersAreScopedByUser(t *testing.T) {
	env := setupTestServer(t)

	doJSON(t, http.MethodPost, env.srv.URL+"/carriers", map[string]interface{}{"type": "mobile_barcode", "number": "/AAA1111"}, http.StatusCreated)

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/carriers", nil)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", "someone-else")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, float64(0), result["total"])
}

func TestInvoiceImport(t *testing.T) {
	env := setupTestServer(t)

	doJSON(t, http.MethodPost, env.srv.URL+"/carriers", map[string]interface{}{"type": "mobile_barcode", "number": "/ABC1234"}, http.StatusCreated)

	export := "表頭=M|載具名稱|載具號碼|發票日期|商店統編|商店店名|發票號碼|總金額|發票狀態|\n" +
		"M|手機條碼|/ABC1234|20240301|22555003|統一超商股份有限公司|AB11111111|120|開立已確認|\n" +
		"D|AB11111111|120|便當|\n" +
		"M|手機條碼|/ABC1234|20240305|12345678|誠品書局|ZZ99999999|450|開立已確認|\n"

	result := uploadExport(t, env.srv.URL+"/invoices/import", export, http.StatusOK)
	assert.Equal(t, float64(2), result["parsed"])
	summary := result["summary"].(map[string]interface{})
	assert.Equal(t, float64(2), summary["created"])

	// AB11111111 is already recorded, so the carrier sync only adds the other two
	synced := doJSON(t, http.MethodPost, env.srv.URL+"/sync", map[string]string{}, http.StatusOK)
	assert.Equal(t, float64(2), synced["created"])
	assert.Equal(t, float64(1), synced["duplicates"])

	uploadExport(t, env.srv.URL+"/invoices/import", "a,b,c\n", http.StatusBadRequest)
}

func TestInvoiceLookup(t *testing.T) {
	env := setupTestServer(t)

	result := doJSON(t, http.MethodPost, env.srv.URL+"/invoices/lookup", map[string]string{
		"invoice_number": "cd12345678",
		"invoice_date":   "2024-03-01",
	}, http.StatusOK)
	assert.Equal(t, false, result["recorded"])
	assert.Equal(t, "food", result["suggested_category"])
	invoice := result["invoice"].(map[string]interface{})
	assert.Equal(t, "CD12345678", invoice["number"])

	scanned := doJSON(t, http.MethodPost, env.srv.URL+"/invoices/scan", map[string]string{
		"invoice_number": "CD12345678",
		"random_code":    "1234",
	}, http.StatusOK)
	assert.Equal(t, "CD12345678", scanned["invoice"].(map[string]interface{})["number"])

	doJSON(t, http.MethodPost, env.srv.URL+"/invoices/lookup", map[string]string{
		"invoice_number": "bad",
		"invoice_date":   "2024-03-01",
	}, http.StatusBadRequest)
}

func TestHealthCheck(t *testing.T) {
	env := setupTestServer(t)

	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result["status"])
}

func TestAutoSyncToggle(t *testing.T) {
	env := setupTestServer(t)

	doJSON(t, http.MethodPut, env.srv.URL+"/sync/auto", map[string]interface{}{"enabled": true, "interval": "10s"}, http.StatusBadRequest)
	doJSON(t, http.MethodPut, env.srv.URL+"/sync/auto", map[string]interface{}{"enabled": true, "interval": "1h"}, http.StatusOK)

	status := doJSON(t, http.MethodGet, env.srv.URL+"/sync/status", nil, http.StatusOK)
	assert.Equal(t, true, status["auto_sync"])

	doJSON(t, http.MethodPut, env.srv.URL+"/sync/auto", map[string]interface{}{"enabled": false}, http.StatusOK)

	status = doJSON(t, http.MethodGet, env.srv.URL+"/sync/status", nil, http.StatusOK)
	assert.Equal(t, false, status["auto_sync"])
}

func doJSON(t *testing.T, method, url string, body interface{}, expectedStatus int) map[string]interface{} {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, expectedStatus, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	return result
}

func uploadExport(t *testing.T, url, content string, expectedStatus int) map[string]interface{} {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "export.csv")
	require.NoError(t, err)

	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, expectedStatus, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	return result
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
