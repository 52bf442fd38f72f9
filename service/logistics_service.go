package service

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"marelle-logistics/config"
	"marelle-logistics/database"
)

// ValidationError marks caller mistakes (missing/unsupported fields); the
// HTTP layer maps it to 400. Deterministic, so the caller must correct and
// resubmit.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ConfigError marks operator mistakes (incomplete credentials); mapped to
// 500. No request is sent to the provider when it fires.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

// ExpressCaller is what the service needs from the provider client. Tests
// substitute a counting stub to assert that rejected requests never reach
// the network.
type ExpressCaller interface {
	CreateShipment(ctx context.Context, env Environment, direction Direction, logisticsType LogisticsType, payload map[string]string) (*ProviderResult, error)
}

// Server wires the provider client, the store and the static configuration.
type Server struct {
	Store  *database.Store
	Config config.Config
	ECPay  ExpressCaller
}

func NewServer(store *database.Store, cfg config.Config) *Server {
	return &Server{
		Store:  store,
		Config: cfg,
		ECPay:  NewExpressClient(cfg.ECPay),
	}
}

// Contact is one side of the shipment (sender or receiver). StoreID is only
// meaningful for CVS receivers.
type Contact struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	CellPhone string `json:"cellphone"`
	ZipCode   string `json:"zipCode"`
	Address   string `json:"address"`
	StoreID   string `json:"storeID"`
}

// CreateShipmentRequest is the inbound JSON body for /logistics/create.
type CreateShipmentRequest struct {
	MerchantTradeNo  string  `json:"merchantTradeNo"`
	LogisticsType    string  `json:"logisticsType"`
	LogisticsSubType string  `json:"logisticsSubType"`
	Reverse          bool    `json:"reverse"`
	Mode             string  `json:"mode"`
	Environment      string  `json:"environment"`
	GoodsAmount      int64   `json:"goodsAmount"`
	IsCollection     bool    `json:"isCollection"`
	CollectionAmount int64   `json:"collectionAmount"`
	GoodsName        string  `json:"goodsName"`
	Sender           Contact `json:"sender"`
	Receiver         Contact `json:"receiver"`

	ServerReplyURL        string `json:"serverReplyURL"`
	ClientReplyURL        string `json:"clientReplyURL"`
	Temperature           string `json:"temperature"`
	Distance              string `json:"distance"`
	Specification         string `json:"specification"`
	ScheduledPickupTime   string `json:"scheduledPickupTime"`
	ScheduledDeliveryTime string `json:"scheduledDeliveryTime"`
	ScheduledDeliveryDate string `json:"scheduledDeliveryDate"`
	Remark                string `json:"remark"`
	PlatformID            string `json:"platformId"`
	TradeDesc             string `json:"tradeDesc"`
	ReturnStoreID         string `json:"returnStoreId"`
}

// CreateShipmentResult pairs the persisted record with the raw provider
// exchange for the HTTP layer to report.
type CreateShipmentResult struct {
	Record   database.ShipmentRecord
	Provider *ProviderResult
}

// shipmentOrder is the validated, enum-typed unit of work.
type shipmentOrder struct {
	req           CreateShipmentRequest
	logisticsType LogisticsType
	direction     Direction
	mode          Mode
	environment   Environment
	sender        Contact
}

// CreateShipment runs the full pipeline: validate, resolve credentials,
// sign, call the provider, derive the terminal status and upsert the record.
// Validation happens strictly before credential resolution and before any
// network traffic.
func (s *Server) CreateShipment(ctx context.Context, req CreateShipmentRequest) (*CreateShipmentResult, error) {
	order, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	creds, err := ResolveCredentials(s.Config.ECPay, order.environment, order.logisticsType, order.mode)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	order.sender = ResolveSender(s.Config.Sender, order.logisticsType, req.Sender)

	payload := s.buildPayload(order, creds)
	mac := SignPayload(payload, creds.HashKey, creds.HashIV)
	payload["CheckMacValue"] = mac

	result, err := s.ECPay.CreateShipment(ctx, order.environment, order.direction, order.logisticsType, payload)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	record := buildRecord(order, payload["LogisticsSubType"], mac, result)
	table := shipmentTable(order.direction, order.logisticsType)
	if err := s.Store.SaveShipment(table, record); err != nil {
		// The shipment may already exist at the provider even though the
		// local write failed; log enough to reconcile by resubmission.
		log.Printf("❌ Failed to store shipment %s (logistics_id=%s): %v\n",
			record.MerchantTradeNo, record.LogisticsID, err)
		return nil, errors.Wrap(err, "failed to save shipment record")
	}

	log.Printf("✅ Shipment %s → %s (rtn_code=%s)\n", record.MerchantTradeNo, record.Status, record.RtnCode)
	return &CreateShipmentResult{Record: record, Provider: result}, nil
}

func (s *Server) validate(req CreateShipmentRequest) (*shipmentOrder, error) {
	logisticsType, err := ParseLogisticsType(req.LogisticsType)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	environment, err := ParseEnvironment(req.Environment)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	direction := DirectionForward
	if req.Reverse {
		direction = DirectionReverse
	}

	if req.MerchantTradeNo == "" {
		return nil, &ValidationError{Reason: "merchantTradeNo is required"}
	}
	if direction == DirectionReverse && logisticsType == TypeCVS {
		return nil, &ValidationError{Reason: "reverse CVS shipments are not supported"}
	}
	if logisticsType == TypeCVS && req.Receiver.StoreID == "" {
		return nil, &ValidationError{Reason: "receiver storeID is required for CVS shipments"}
	}
	if logisticsType == TypeHome && (req.Receiver.ZipCode == "" || req.Receiver.Address == "") {
		return nil, &ValidationError{Reason: "receiver zipCode and address are required for Home shipments"}
	}

	return &shipmentOrder{
		req:           req,
		logisticsType: logisticsType,
		direction:     direction,
		mode:          mode,
		environment:   environment,
	}, nil
}

// buildPayload assembles the full wire field set. Every documented field is
// present, absent values as empty strings; the MAC later excludes the blanks
// on its own.
func (s *Server) buildPayload(order *shipmentOrder, creds config.CredentialSet) map[string]string {
	req := order.req

	isCollection := "N"
	if req.IsCollection {
		isCollection = "Y"
	}

	return map[string]string{
		"MerchantID":            creds.MerchantID,
		"MerchantTradeNo":       req.MerchantTradeNo,
		"MerchantTradeDate":     time.Now().Format("2006/01/02 15:04:05"),
		"LogisticsType":         wireLogisticsType(order.logisticsType),
		"LogisticsSubType":      s.resolveSubType(order, req.LogisticsSubType),
		"GoodsAmount":           strconv.FormatInt(req.GoodsAmount, 10),
		"CollectionAmount":      strconv.FormatInt(req.CollectionAmount, 10),
		"IsCollection":          isCollection,
		"GoodsName":             req.GoodsName,
		"SenderName":            order.sender.Name,
		"SenderPhone":           order.sender.Phone,
		"SenderCellPhone":       order.sender.CellPhone,
		"SenderZipCode":         order.sender.ZipCode,
		"SenderAddress":         order.sender.Address,
		"ReceiverName":          req.Receiver.Name,
		"ReceiverPhone":         req.Receiver.Phone,
		"ReceiverCellPhone":     req.Receiver.CellPhone,
		"ReceiverZipCode":       req.Receiver.ZipCode,
		"ReceiverAddress":       req.Receiver.Address,
		"ReceiverStoreID":       req.Receiver.StoreID,
		"ReturnStoreID":         req.ReturnStoreID,
		"ServerReplyURL":        firstNonEmpty(req.ServerReplyURL, s.Config.ECPay.ServerReplyURL),
		"ClientReplyURL":        req.ClientReplyURL,
		"Temperature":           req.Temperature,
		"Distance":              req.Distance,
		"Specification":         req.Specification,
		"ScheduledPickupTime":   req.ScheduledPickupTime,
		"ScheduledDeliveryTime": req.ScheduledDeliveryTime,
		"ScheduledDeliveryDate": req.ScheduledDeliveryDate,
		"Remark":                req.Remark,
		"PlatformID":            firstNonEmpty(req.PlatformID, s.Config.ECPay.PlatformID),
		"TradeDesc":             req.TradeDesc,
	}
}

func (s *Server) resolveSubType(order *shipmentOrder, callerSubType string) string {
	if callerSubType != "" {
		return callerSubType
	}
	switch order.logisticsType {
	case TypeHome:
		return s.Config.ECPay.HomeSubType
	case TypeCVS:
		if order.mode == ModeC2C {
			return s.Config.ECPay.CVSC2CSubType
		}
		return s.Config.ECPay.CVSSubType
	}
	return ""
}

// ShipmentSucceeded is the provider success predicate. The disjunction is
// deliberate: CVS and Home, forward and reverse, populate different subsets
// of these fields on success.
func ShipmentSucceeded(parsed map[string]string) bool {
	return parsed["RtnCode"] == "1" ||
		parsed["LogisticsID"] != "" ||
		parsed["AllPayLogisticsID"] != ""
}

func buildRecord(order *shipmentOrder, subType, mac string, result *ProviderResult) database.ShipmentRecord {
	req := order.req

	status := database.ShipmentStatusFailed
	if ShipmentSucceeded(result.Parsed) {
		status = database.ShipmentStatusCreated
	}

	logisticsID := result.Parsed["AllPayLogisticsID"]
	if logisticsID == "" {
		logisticsID = result.Parsed["LogisticsID"]
	}

	return database.ShipmentRecord{
		MerchantTradeNo:  req.MerchantTradeNo,
		LogisticsType:    string(order.logisticsType),
		LogisticsSubType: subType,
		Direction:        string(order.direction),
		Mode:             string(order.mode),
		Environment:      string(order.environment),

		Status:      status,
		RtnCode:     result.Parsed["RtnCode"],
		RtnMsg:      result.Parsed["RtnMsg"],
		LogisticsID: logisticsID,
		BookingNote: result.Parsed["BookingNote"],

		GoodsAmount:      req.GoodsAmount,
		GoodsName:        req.GoodsName,
		IsCollection:     req.IsCollection,
		CollectionAmount: req.CollectionAmount,

		SenderName:      order.sender.Name,
		SenderPhone:     order.sender.Phone,
		SenderCellPhone: order.sender.CellPhone,
		SenderZipCode:   order.sender.ZipCode,
		SenderAddress:   order.sender.Address,

		ReceiverName:      req.Receiver.Name,
		ReceiverPhone:     req.Receiver.Phone,
		ReceiverCellPhone: req.Receiver.CellPhone,
		ReceiverZipCode:   req.Receiver.ZipCode,
		ReceiverAddress:   req.Receiver.Address,
		ReceiverStoreID:   req.Receiver.StoreID,

		CheckMacValue: mac,
		RawResult:     result.Parsed,
	}
}

func shipmentTable(direction Direction, logisticsType LogisticsType) string {
	if direction == DirectionReverse {
		// Reverse CVS is rejected in validate, so reverse here is Home.
		return database.TableReturnHomeShipments
	}
	if logisticsType == TypeCVS {
		return database.TableCVSShipments
	}
	return database.TableHomeShipments
}

func wireLogisticsType(logisticsType LogisticsType) string {
	if logisticsType == TypeHome {
		return "HOME"
	}
	return "CVS"
}
