package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"
	"text/template"

	"marelle-logistics/database"
	"marelle-logistics/service"
)

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "Marelle Logistics Service")
}

// createShipmentResponse mirrors the provider outcome back to the caller:
// ok is the terminal business outcome, status the provider HTTP status, and
// data the fully parsed provider response.
type createShipmentResponse struct {
	OK      bool              `json:"ok"`
	Status  int               `json:"status"`
	RtnCode string            `json:"rtnCode"`
	RtnMsg  string            `json:"rtnMsg"`
	Data    map[string]string `json:"data"`
}

func (a *App) createShipmentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req service.CreateShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log.Printf("📥 CreateShipment %s type=%s reverse=%t\n", req.MerchantTradeNo, req.LogisticsType, req.Reverse)

	result, err := a.Logistics.CreateShipment(r.Context(), req)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		log.Println("❌ CreateShipment failed:", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, createShipmentResponse{
		OK:      result.Record.Status == database.ShipmentStatusCreated,
		Status:  result.Provider.Status,
		RtnCode: result.Record.RtnCode,
		RtnMsg:  result.Record.RtnMsg,
		Data:    result.Provider.Parsed,
	})
}

func (a *App) getShipmentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tradeNo := strings.TrimPrefix(r.URL.Path, "/logistics/shipments/")
	tradeNo = strings.Trim(strings.TrimSpace(tradeNo), "/")
	if tradeNo == "" || strings.Contains(tradeNo, "/") {
		http.NotFound(w, r)
		return
	}
	tradeNo = path.Base(tradeNo)

	record, err := a.Store.LoadShipment(tradeNo)
	if err != nil {
		if err == sql.ErrNoRows {
			http.NotFound(w, r)
			return
		}
		log.Println("failed to load shipment:", err)
		writeError(w, http.StatusInternalServerError, "failed to load shipment")
		return
	}

	writeJSON(w, http.StatusOK, shipmentView(*record))
}

func (a *App) listShipmentsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := a.Store.LoadShipments(
		r.URL.Query().Get("from"),
		r.URL.Query().Get("to"),
		parseLimit(r.URL.Query().Get("limit")),
	)
	if err != nil {
		log.Println("failed to load shipments:", err)
		writeError(w, http.StatusInternalServerError, "failed to load shipments")
		return
	}

	views := make([]shipmentRecordView, 0, len(records))
	for _, record := range records {
		views = append(views, shipmentView(record))
	}
	writeJSON(w, http.StatusOK, views)
}

// shipmentRecordView is the JSON projection of a persisted record.
type shipmentRecordView struct {
	MerchantTradeNo  string            `json:"merchantTradeNo"`
	LogisticsType    string            `json:"logisticsType"`
	LogisticsSubType string            `json:"logisticsSubType"`
	Direction        string            `json:"direction"`
	Mode             string            `json:"mode"`
	Environment      string            `json:"environment"`
	Status           string            `json:"status"`
	RtnCode          string            `json:"rtnCode"`
	RtnMsg           string            `json:"rtnMsg"`
	LogisticsID      string            `json:"logisticsId"`
	BookingNote      string            `json:"bookingNote"`
	GoodsAmount      int64             `json:"goodsAmount"`
	GoodsName        string            `json:"goodsName"`
	ReceiverName     string            `json:"receiverName"`
	ReceiverStoreID  string            `json:"receiverStoreId,omitempty"`
	CheckMacValue    string            `json:"checkMacValue"`
	RawResult        map[string]string `json:"rawResult"`
	CreatedAt        string            `json:"createdAt"`
	UpdatedAt        string            `json:"updatedAt"`
}

func shipmentView(record database.ShipmentRecord) shipmentRecordView {
	return shipmentRecordView{
		MerchantTradeNo:  record.MerchantTradeNo,
		LogisticsType:    record.LogisticsType,
		LogisticsSubType: record.LogisticsSubType,
		Direction:        record.Direction,
		Mode:             record.Mode,
		Environment:      record.Environment,
		Status:           record.Status,
		RtnCode:          record.RtnCode,
		RtnMsg:           record.RtnMsg,
		LogisticsID:      record.LogisticsID,
		BookingNote:      record.BookingNote,
		GoodsAmount:      record.GoodsAmount,
		GoodsName:        record.GoodsName,
		ReceiverName:     record.ReceiverName,
		ReceiverStoreID:  record.ReceiverStoreID,
		CheckMacValue:    record.CheckMacValue,
		RawResult:        record.RawResult,
		CreatedAt:        record.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:        record.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

type shipmentsPageData struct {
	FromDate  string
	ToDate    string
	Shipments []database.ShipmentRecord
}

// shipmentsPageHandler renders the operator back-office view of recent
// shipment records.
func (a *App) shipmentsPageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fromDate := strings.TrimSpace(r.URL.Query().Get("from"))
	toDate := strings.TrimSpace(r.URL.Query().Get("to"))
	limit := 10
	if fromDate != "" || toDate != "" {
		limit = 200
	}

	shipments, err := a.Store.LoadShipments(fromDate, toDate, limit)
	if err != nil {
		log.Println("failed to load shipment records:", err)
		http.Error(w, "failed to load shipments", http.StatusInternalServerError)
		return
	}

	renderShipmentsPage(w, shipmentsPageData{
		FromDate:  fromDate,
		ToDate:    toDate,
		Shipments: shipments,
	})
}

func renderShipmentsPage(w http.ResponseWriter, data shipmentsPageData) {
	tmpl := template.Must(template.New("shipments").Parse(shipmentsHTML))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		log.Println("failed to render shipments:", err)
	}
}

func parseLimit(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 50
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Println("failed to write response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

const shipmentsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>Marelle Shipments</title>
  <style>
    :root {
      --bg: #f3f5f8;
      --card: #ffffff;
      --text: #1d1f23;
      --muted: #6b7280;
      --border: #e5e7eb;
      --accent: #2563eb;
    }
    * { box-sizing: border-box; }
    body { font-family: "Source Sans 3", "Segoe UI", "Helvetica Neue", Arial, sans-serif; margin: 0; background: var(--bg); color: var(--text); }
    .wrap { max-width: 960px; margin: 40px auto; padding: 0 20px; }
    .card { background: var(--card); border: 1px solid var(--border); border-radius: 10px; padding: 24px; box-shadow: 0 12px 30px rgba(15,23,42,.08); }
    h1 { margin: 0 0 16px; font-size: 20px; }
    form { margin-bottom: 16px; }
    label { color: var(--muted); margin-right: 4px; }
    input[type=date] { border: 1px solid var(--border); border-radius: 6px; padding: 6px 8px; margin-right: 12px; }
    button { background: var(--accent); color: #fff; border: 0; border-radius: 6px; padding: 8px 16px; font-weight: 600; cursor: pointer; }
    table { width: 100%; border-collapse: collapse; font-size: 14px; }
    th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid var(--border); }
    th { color: var(--muted); font-weight: 600; }
    .status-created { color: #059669; font-weight: 600; }
    .status-failed { color: #dc2626; font-weight: 600; }
    .empty { color: var(--muted); padding: 24px 0; text-align: center; }
  </style>
</head>
<body>
  <div class="wrap">
    <div class="card">
      <h1>Shipment Records</h1>
      <form method="get" action="/shipments">
        <label for="from">From</label>
        <input type="date" id="from" name="from" value="{{.FromDate}}">
        <label for="to">To</label>
        <input type="date" id="to" name="to" value="{{.ToDate}}">
        <button type="submit">Filter</button>
      </form>
      <table>
        <thead>
          <tr>
            <th>Trade No.</th>
            <th>Type</th>
            <th>Direction</th>
            <th>Status</th>
            <th>RtnCode</th>
            <th>Logistics ID</th>
            <th>Goods</th>
            <th>Updated</th>
          </tr>
        </thead>
        <tbody>
          {{range .Shipments}}
          <tr>
            <td>{{.MerchantTradeNo}}</td>
            <td>{{.LogisticsType}}/{{.LogisticsSubType}}</td>
            <td>{{.Direction}}</td>
            <td class="status-{{.Status}}">{{.Status}}</td>
            <td>{{.RtnCode}}</td>
            <td>{{.LogisticsID}}</td>
            <td>{{.GoodsName}}</td>
            <td>{{.UpdatedAt.Format "2006-01-02 15:04"}}</td>
          </tr>
          {{else}}
          <tr><td colspan="8" class="empty">No shipment records.</td></tr>
          {{end}}
        </tbody>
      </table>
    </div>
  </div>
</body>
</html>`
