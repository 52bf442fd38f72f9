package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Shipment terminal status. There is no pending state: a record is written
// only after the provider round-trip completes.
const (
	ShipmentStatusCreated = "created"
	ShipmentStatusFailed  = "failed"
)

const (
	TableHomeShipments       = "logistics_home_shipments"
	TableCVSShipments        = "logistics_cvs_shipments"
	TableReturnHomeShipments = "logistics_return_home_shipments"
)

// ShipmentTables lists every shipment table, newest shipment surface first.
var ShipmentTables = []string{
	TableHomeShipments,
	TableCVSShipments,
	TableReturnHomeShipments,
}

// ShipmentRecord is the denormalized request/response pair persisted per
// merchant trade number.
type ShipmentRecord struct {
	MerchantTradeNo  string
	LogisticsType    string
	LogisticsSubType string
	Direction        string
	Mode             string
	Environment      string

	Status      string
	RtnCode     string
	RtnMsg      string
	LogisticsID string
	BookingNote string

	GoodsAmount      int64
	GoodsName        string
	IsCollection     bool
	CollectionAmount int64

	SenderName      string
	SenderPhone     string
	SenderCellPhone string
	SenderZipCode   string
	SenderAddress   string

	ReceiverName      string
	ReceiverPhone     string
	ReceiverCellPhone string
	ReceiverZipCode   string
	ReceiverAddress   string
	ReceiverStoreID   string

	// CheckMacValue is the MAC actually sent, retained for audit.
	CheckMacValue string
	// RawResult is the fully parsed provider response, retained for
	// forensic replay.
	RawResult map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

const shipmentColumns = `merchant_trade_no, logistics_type, logistics_sub_type, direction, mode, environment,
		status, rtn_code, rtn_msg, logistics_id, booking_note,
		goods_amount, goods_name, is_collection, collection_amount,
		sender_name, sender_phone, sender_cellphone, sender_zip_code, sender_address,
		receiver_name, receiver_phone, receiver_cellphone, receiver_zip_code, receiver_address, receiver_store_id,
		check_mac_value, raw_result`

// SaveShipment upserts one record keyed by merchant_trade_no. A retry with
// the same trade number overwrites the prior row (last write wins), never a
// duplicate-key error.
func (s *Store) SaveShipment(table string, record ShipmentRecord) error {
	if !knownShipmentTable(table) {
		return fmt.Errorf("unknown shipment table %q", table)
	}

	rawResult, err := json.Marshal(record.RawResult)
	if err != nil {
		return fmt.Errorf("failed to encode raw result: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		ON CONFLICT (merchant_trade_no) DO UPDATE SET
			logistics_type = EXCLUDED.logistics_type,
			logistics_sub_type = EXCLUDED.logistics_sub_type,
			direction = EXCLUDED.direction,
			mode = EXCLUDED.mode,
			environment = EXCLUDED.environment,
			status = EXCLUDED.status,
			rtn_code = EXCLUDED.rtn_code,
			rtn_msg = EXCLUDED.rtn_msg,
			logistics_id = EXCLUDED.logistics_id,
			booking_note = EXCLUDED.booking_note,
			goods_amount = EXCLUDED.goods_amount,
			goods_name = EXCLUDED.goods_name,
			is_collection = EXCLUDED.is_collection,
			collection_amount = EXCLUDED.collection_amount,
			sender_name = EXCLUDED.sender_name,
			sender_phone = EXCLUDED.sender_phone,
			sender_cellphone = EXCLUDED.sender_cellphone,
			sender_zip_code = EXCLUDED.sender_zip_code,
			sender_address = EXCLUDED.sender_address,
			receiver_name = EXCLUDED.receiver_name,
			receiver_phone = EXCLUDED.receiver_phone,
			receiver_cellphone = EXCLUDED.receiver_cellphone,
			receiver_zip_code = EXCLUDED.receiver_zip_code,
			receiver_address = EXCLUDED.receiver_address,
			receiver_store_id = EXCLUDED.receiver_store_id,
			check_mac_value = EXCLUDED.check_mac_value,
			raw_result = EXCLUDED.raw_result,
			updated_at = NOW()
	`, table, shipmentColumns)

	_, err = s.DB.Exec(query,
		record.MerchantTradeNo,
		record.LogisticsType,
		record.LogisticsSubType,
		record.Direction,
		record.Mode,
		record.Environment,
		record.Status,
		record.RtnCode,
		record.RtnMsg,
		record.LogisticsID,
		record.BookingNote,
		record.GoodsAmount,
		record.GoodsName,
		record.IsCollection,
		record.CollectionAmount,
		record.SenderName,
		record.SenderPhone,
		record.SenderCellPhone,
		record.SenderZipCode,
		record.SenderAddress,
		record.ReceiverName,
		record.ReceiverPhone,
		record.ReceiverCellPhone,
		record.ReceiverZipCode,
		record.ReceiverAddress,
		record.ReceiverStoreID,
		record.CheckMacValue,
		rawResult,
	)
	return err
}

// LoadShipment looks the trade number up across the shipment tables and
// returns the first hit.
func (s *Store) LoadShipment(merchantTradeNo string) (*ShipmentRecord, error) {
	for _, table := range ShipmentTables {
		record, err := s.loadShipmentFrom(table, merchantTradeNo)
		if err == nil {
			return record, nil
		}
		if err != sql.ErrNoRows {
			return nil, err
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) loadShipmentFrom(table, merchantTradeNo string) (*ShipmentRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s, created_at, updated_at
		FROM %s
		WHERE merchant_trade_no = $1
	`, shipmentColumns, table)

	return scanShipment(s.DB.QueryRow(query, merchantTradeNo))
}

// LoadShipments lists recent records across every shipment table, optionally
// bounded by creation date (YYYY-MM-DD, inclusive).
func (s *Store) LoadShipments(fromDate, toDate string, limit int) ([]ShipmentRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	conditions := []string{}
	args := []any{}
	if strings.TrimSpace(fromDate) != "" {
		args = append(args, strings.TrimSpace(fromDate))
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d::date", len(args)))
	}
	if strings.TrimSpace(toDate) != "" {
		args = append(args, strings.TrimSpace(toDate))
		conditions = append(conditions, fmt.Sprintf("created_at < $%d::date + INTERVAL '1 day'", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	selects := make([]string, 0, len(ShipmentTables))
	for _, table := range ShipmentTables {
		selects = append(selects, fmt.Sprintf(
			"SELECT %s, created_at, updated_at FROM %s%s", shipmentColumns, table, where,
		))
	}
	args = append(args, limit)
	query := strings.Join(selects, " UNION ALL ") + fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", len(args))

	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ShipmentRecord
	for rows.Next() {
		record, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*ShipmentRecord, error) {
	var record ShipmentRecord
	var rawResult []byte
	err := row.Scan(
		&record.MerchantTradeNo,
		&record.LogisticsType,
		&record.LogisticsSubType,
		&record.Direction,
		&record.Mode,
		&record.Environment,
		&record.Status,
		&record.RtnCode,
		&record.RtnMsg,
		&record.LogisticsID,
		&record.BookingNote,
		&record.GoodsAmount,
		&record.GoodsName,
		&record.IsCollection,
		&record.CollectionAmount,
		&record.SenderName,
		&record.SenderPhone,
		&record.SenderCellPhone,
		&record.SenderZipCode,
		&record.SenderAddress,
		&record.ReceiverName,
		&record.ReceiverPhone,
		&record.ReceiverCellPhone,
		&record.ReceiverZipCode,
		&record.ReceiverAddress,
		&record.ReceiverStoreID,
		&record.CheckMacValue,
		&rawResult,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rawResult) > 0 {
		if err := json.Unmarshal(rawResult, &record.RawResult); err != nil {
			return nil, fmt.Errorf("failed to decode raw result: %w", err)
		}
	}
	return &record, nil
}

func knownShipmentTable(name string) bool {
	for _, table := range ShipmentTables {
		if table == name {
			return true
		}
	}
	return false
}
