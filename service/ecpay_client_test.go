package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"marelle-logistics/config"
)

func testClient(serverURL string) *ExpressClient {
	return NewExpressClient(config.ECPayConfig{
		ProductionBaseURL: serverURL,
		StageBaseURL:      serverURL,
	})
}

func TestParseProviderResponse_Lenient(t *testing.T) {
	parsed := ParseProviderResponse("RtnCode=1&RtnMsg=&Malformed&LogisticsID=ABC123")

	if parsed["RtnCode"] != "1" {
		t.Fatalf("expected RtnCode 1, got %q", parsed["RtnCode"])
	}
	if value, ok := parsed["RtnMsg"]; !ok || value != "" {
		t.Fatalf("expected empty RtnMsg to be present, got %q (present=%t)", value, ok)
	}
	if parsed["LogisticsID"] != "ABC123" {
		t.Fatalf("expected LogisticsID ABC123, got %q", parsed["LogisticsID"])
	}
	if _, ok := parsed["Malformed"]; ok {
		t.Fatalf("expected malformed token without '=' to be skipped")
	}
	if len(parsed) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(parsed), parsed)
	}
}

func TestParseProviderResponse_DecodesValues(t *testing.T) {
	parsed := ParseProviderResponse("RtnMsg=Order+Created%21&BookingNote=A%2FB")
	if parsed["RtnMsg"] != "Order Created!" {
		t.Fatalf("expected decoded RtnMsg, got %q", parsed["RtnMsg"])
	}
	if parsed["BookingNote"] != "A/B" {
		t.Fatalf("expected decoded BookingNote, got %q", parsed["BookingNote"])
	}
}

func TestEndpoint_Selection(t *testing.T) {
	client := &ExpressClient{
		ProductionBaseURL: "https://prod.example.com",
		StageBaseURL:      "https://stage.example.com",
	}

	cases := []struct {
		env           Environment
		direction     Direction
		logisticsType LogisticsType
		want          string
	}{
		{EnvStage, DirectionForward, TypeCVS, "https://stage.example.com/Express/Create"},
		{EnvStage, DirectionForward, TypeHome, "https://stage.example.com/Express/Create"},
		{EnvProduction, DirectionReverse, TypeHome, "https://prod.example.com/Express/ReturnHome"},
		{EnvStage, DirectionReverse, TypeCVS, "https://stage.example.com/Express/ReturnCVS"},
	}
	for _, c := range cases {
		got, err := client.Endpoint(c.env, c.direction, c.logisticsType)
		if err != nil {
			t.Fatalf("unexpected error for %s/%s/%s: %v", c.env, c.direction, c.logisticsType, err)
		}
		if got != c.want {
			t.Fatalf("expected %s, got %s", c.want, got)
		}
	}
}

func TestCreateShipment_SendsAllFieldsAsForm(t *testing.T) {
	var gotContentType string
	var gotForm map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotForm = r.PostForm
		io.WriteString(w, "RtnCode=1&RtnMsg=OK&AllPayLogisticsID=9999")
	}))
	defer server.Close()

	payload := map[string]string{
		"MerchantID":      "2000933",
		"MerchantTradeNo": "NO1",
		"Remark":          "",
	}
	result, err := testClient(server.URL).CreateShipment(context.Background(), EnvStage, DirectionForward, TypeCVS, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("expected form content type, got %q", gotContentType)
	}
	// Blank fields are still posted: the provider's form parser expects
	// every documented field present.
	if values, ok := gotForm["Remark"]; !ok || values[0] != "" {
		t.Fatalf("expected empty Remark to be sent, got %v (present=%t)", values, ok)
	}
	if !result.OK || result.Status != http.StatusOK {
		t.Fatalf("expected HTTP-level success, got ok=%t status=%d", result.OK, result.Status)
	}
	if result.Parsed["AllPayLogisticsID"] != "9999" {
		t.Fatalf("expected parsed logistics id, got %v", result.Parsed)
	}
}

func TestCreateShipment_Non2xxIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream unavailable")
	}))
	defer server.Close()

	result, err := testClient(server.URL).CreateShipment(context.Background(), EnvStage, DirectionForward, TypeHome, map[string]string{})
	if err != nil {
		t.Fatalf("expected transport failure to be reported, not returned: %v", err)
	}
	if result.OK {
		t.Fatalf("expected ok=false for non-2xx status")
	}
	if result.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", result.Status)
	}
	if result.RawBody != "upstream unavailable" {
		t.Fatalf("expected raw body to be retained, got %q", result.RawBody)
	}
}

func TestCreateShipment_NetworkFailureIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	result, err := testClient(server.URL).CreateShipment(context.Background(), EnvStage, DirectionForward, TypeHome, map[string]string{})
	if err != nil {
		t.Fatalf("expected network failure to be reported, not returned: %v", err)
	}
	if result.OK || result.Status != 0 {
		t.Fatalf("expected ok=false status=0, got ok=%t status=%d", result.OK, result.Status)
	}
}
