package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// ShippingRateConfig is the single active rate table: origin plus the local
// and interstate min/max rates per kilogram.
type ShippingRateConfig struct {
	ID            pgtype.UUID
	OriginState   string
	OriginCity    string
	LocalMin      float64
	LocalMax      float64
	InterstateMin float64
	InterstateMax float64
	UpdatedAt     pgtype.Timestamptz
}

// ShipmentStatus is the lifecycle state of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusPending        ShipmentStatus = "PENDING"
	ShipmentStatusPicked         ShipmentStatus = "PICKED"
	ShipmentStatusShipped        ShipmentStatus = "SHIPPED"
	ShipmentStatusOutForDelivery ShipmentStatus = "OUT_FOR_DELIVERY"
	ShipmentStatusDelivered      ShipmentStatus = "DELIVERED"
)

// Shipment tracks the physical delivery of an online order.
type Shipment struct {
	ID             pgtype.UUID
	OrderID        pgtype.UUID
	Courier        pgtype.Text
	TrackingNumber pgtype.Text
	Status         ShipmentStatus
	LastEventAt    pgtype.Timestamptz
	CreatedAt      pgtype.Timestamptz
}

// ShipmentEvent is one tracking update for a shipment.
type ShipmentEvent struct {
	ID          pgtype.UUID
	ShipmentID  pgtype.UUID
	Status      ShipmentStatus
	Description pgtype.Text
	Location    pgtype.Text
	OccurredAt  pgtype.Timestamptz
	RawPayload  []byte
}

// GetShippingRateConfig returns the active rate table.
func (s *Store) GetShippingRateConfig(ctx context.Context) (ShippingRateConfig, error) {
	var c ShippingRateConfig
	err := s.db.QueryRow(ctx, `
		SELECT id, origin_state, origin_city, local_min, local_max, interstate_min, interstate_max, updated_at
		FROM shipping_rates ORDER BY updated_at DESC LIMIT 1`).
		Scan(&c.ID, &c.OriginState, &c.OriginCity, &c.LocalMin, &c.LocalMax, &c.InterstateMin, &c.InterstateMax, &c.UpdatedAt)
	return c, notFound(err)
}

// UpsertShippingRateConfig replaces the active rate table.
func (s *Store) UpsertShippingRateConfig(ctx context.Context, c ShippingRateConfig) (ShippingRateConfig, error) {
	var out ShippingRateConfig
	err := s.db.QueryRow(ctx, `
		INSERT INTO shipping_rates (origin_state, origin_city, local_min, local_max, interstate_min, interstate_max)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, origin_state, origin_city, local_min, local_max, interstate_min, interstate_max, updated_at`,
		c.OriginState, c.OriginCity, c.LocalMin, c.LocalMax, c.InterstateMin, c.InterstateMax).
		Scan(&out.ID, &out.OriginState, &out.OriginCity, &out.LocalMin, &out.LocalMax, &out.InterstateMin, &out.InterstateMax, &out.UpdatedAt)
	return out, err
}

// CreateShipment opens a shipment for an order.
func (s *Store) CreateShipment(ctx context.Context, orderID pgtype.UUID, courier, tracking pgtype.Text) (Shipment, error) {
	var sh Shipment
	err := s.db.QueryRow(ctx, `
		INSERT INTO shipments (order_id, courier, tracking_number, status)
		VALUES ($1, $2, $3, 'PENDING')
		RETURNING id, order_id, courier, tracking_number, status, last_event_at, created_at`,
		orderID, courier, tracking).
		Scan(&sh.ID, &sh.OrderID, &sh.Courier, &sh.TrackingNumber, &sh.Status, &sh.LastEventAt, &sh.CreatedAt)
	return sh, err
}

// GetShipmentByOrder fetches the shipment of an order.
func (s *Store) GetShipmentByOrder(ctx context.Context, orderID pgtype.UUID) (Shipment, error) {
	var sh Shipment
	err := s.db.QueryRow(ctx, `
		SELECT id, order_id, courier, tracking_number, status, last_event_at, created_at
		FROM shipments WHERE order_id = $1`, orderID).
		Scan(&sh.ID, &sh.OrderID, &sh.Courier, &sh.TrackingNumber, &sh.Status, &sh.LastEventAt, &sh.CreatedAt)
	return sh, notFound(err)
}

// GetShipmentByTracking resolves a shipment by its tracking number.
func (s *Store) GetShipmentByTracking(ctx context.Context, tracking string) (Shipment, error) {
	var sh Shipment
	err := s.db.QueryRow(ctx, `
		SELECT id, order_id, courier, tracking_number, status, last_event_at, created_at
		FROM shipments WHERE tracking_number = $1`, tracking).
		Scan(&sh.ID, &sh.OrderID, &sh.Courier, &sh.TrackingNumber, &sh.Status, &sh.LastEventAt, &sh.CreatedAt)
	return sh, notFound(err)
}

// UpdateShipmentStatus sets the shipment status and last event time.
func (s *Store) UpdateShipmentStatus(ctx context.Context, id pgtype.UUID, status ShipmentStatus, at pgtype.Timestamptz) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE shipments SET status = $2, last_event_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertShipmentEvent records one tracking event.
func (s *Store) InsertShipmentEvent(ctx context.Context, e ShipmentEvent) (ShipmentEvent, error) {
	var out ShipmentEvent
	err := s.db.QueryRow(ctx, `
		INSERT INTO shipment_events (shipment_id, status, description, location, occurred_at, raw_payload)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), $6)
		RETURNING id, shipment_id, status, description, location, occurred_at, raw_payload`,
		e.ShipmentID, e.Status, e.Description, e.Location, nullableTimestamp(e.OccurredAt), e.RawPayload).
		Scan(&out.ID, &out.ShipmentID, &out.Status, &out.Description, &out.Location, &out.OccurredAt, &out.RawPayload)
	return out, err
}

// ListShipmentEvents returns tracking history, newest first.
func (s *Store) ListShipmentEvents(ctx context.Context, shipmentID pgtype.UUID) ([]ShipmentEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, shipment_id, status, description, location, occurred_at, raw_payload
		FROM shipment_events WHERE shipment_id = $1 ORDER BY occurred_at DESC`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ShipmentEvent
	for rows.Next() {
		var e ShipmentEvent
		if err := rows.Scan(&e.ID, &e.ShipmentID, &e.Status, &e.Description, &e.Location, &e.OccurredAt, &e.RawPayload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableTimestamp(ts pgtype.Timestamptz) any {
	if !ts.Valid {
		return nil
	}
	return ts
}
