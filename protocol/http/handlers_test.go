package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"marelle-logistics/config"
	"marelle-logistics/database"
	"marelle-logistics/service"
)

type stubCaller struct {
	calls  int
	result *service.ProviderResult
}

func (s *stubCaller) CreateShipment(ctx context.Context, env service.Environment, direction service.Direction, logisticsType service.LogisticsType, payload map[string]string) (*service.ProviderResult, error) {
	s.calls++
	return s.result, nil
}

func testApp(t *testing.T, stub *stubCaller) (*App, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		ECPay: config.ECPayConfig{
			Stage: config.StageCredentials{
				Default: config.CredentialSet{MerchantID: "2000933", HashKey: "k", HashIV: "v"},
			},
			CVSSubType:    "UNIMART",
			CVSC2CSubType: "UNIMARTC2C",
			HomeSubType:   "TCAT",
		},
	}
	store := &database.Store{DB: db}
	return &App{
		Config:    cfg,
		Store:     store,
		Logistics: &service.Server{Store: store, Config: cfg, ECPay: stub},
	}, mock
}

func TestCreateShipmentHandler_InvalidBody(t *testing.T) {
	app, _ := testApp(t, &stubCaller{})

	req := httptest.NewRequest(http.MethodPost, "/logistics/create", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()
	app.createShipmentHandler(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Fatalf("expected {error} body, got %q", recorder.Body.String())
	}
}

func TestCreateShipmentHandler_ReverseCVSIs400(t *testing.T) {
	stub := &stubCaller{}
	app, _ := testApp(t, stub)

	payload := `{"merchantTradeNo":"MT1","logisticsType":"CVS","reverse":true,"receiver":{"storeID":"991182"}}`
	req := httptest.NewRequest(http.MethodPost, "/logistics/create", strings.NewReader(payload))
	recorder := httptest.NewRecorder()
	app.createShipmentHandler(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if stub.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", stub.calls)
	}
}

func TestCreateShipmentHandler_Success(t *testing.T) {
	stub := &stubCaller{result: &service.ProviderResult{
		OK:     true,
		Status: 200,
		Parsed: map[string]string{"RtnCode": "1", "RtnMsg": "OK", "AllPayLogisticsID": "9999"},
	}}
	app, mock := testApp(t, stub)
	mock.ExpectExec("INSERT INTO logistics_cvs_shipments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	payload := `{"merchantTradeNo":"MT1","logisticsType":"CVS","mode":"C2C","goodsAmount":500,"goodsName":"Ring","receiver":{"name":"Alice","storeID":"991182"}}`
	req := httptest.NewRequest(http.MethodPost, "/logistics/create", strings.NewReader(payload))
	recorder := httptest.NewRecorder()
	app.createShipmentHandler(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var body createShipmentResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.OK || body.RtnCode != "1" {
		t.Fatalf("expected ok=true rtnCode=1, got %+v", body)
	}
	if body.Data["AllPayLogisticsID"] != "9999" {
		t.Fatalf("expected provider data passed through, got %v", body.Data)
	}
}

func TestCreateShipmentHandler_PersistenceErrorIs500(t *testing.T) {
	stub := &stubCaller{result: &service.ProviderResult{
		OK:     true,
		Status: 200,
		Parsed: map[string]string{"RtnCode": "1"},
	}}
	app, mock := testApp(t, stub)
	mock.ExpectExec("INSERT INTO logistics_cvs_shipments").
		WillReturnError(sql.ErrConnDone)

	payload := `{"merchantTradeNo":"MT1","logisticsType":"CVS","receiver":{"storeID":"991182"}}`
	req := httptest.NewRequest(http.MethodPost, "/logistics/create", strings.NewReader(payload))
	recorder := httptest.NewRecorder()
	app.createShipmentHandler(recorder, req)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
}

func TestGetShipmentHandler_NotFound(t *testing.T) {
	app, mock := testApp(t, &stubCaller{})
	for range database.ShipmentTables {
		mock.ExpectQuery("FROM logistics_").WillReturnError(sql.ErrNoRows)
	}

	req := httptest.NewRequest(http.MethodGet, "/logistics/shipments/MISSING", nil)
	recorder := httptest.NewRecorder()
	app.getShipmentHandler(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestCreateShipmentHandler_MethodNotAllowed(t *testing.T) {
	app, _ := testApp(t, &stubCaller{})

	req := httptest.NewRequest(http.MethodGet, "/logistics/create", nil)
	recorder := httptest.NewRecorder()
	app.createShipmentHandler(recorder, req)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
}
