package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

const (
	trackingCodeConstraint = "ux_orders_tracking_code"

	orderColumns = `
		id, user_id,
		customer_first_name, customer_last_name, customer_phone, customer_cpf,
		customer_address, customer_city, customer_state, customer_zip_code,
		product_name, product_image_url, product_quantity, product_price,
		shipping_price, free_shipping,
		tracking_code, tracking_company, estimated_delivery_date, created_at`
)

// queryer — общее подмножество *sql.DB и *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner — общее подмножество *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	header := order
	header.Tracking.Code = domain.NormalizeTrackingCode(order.Tracking.Code)
	header.Product.Image.Pending = nil
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	// После Commit откат возвращает sql.ErrTxDone и ничего не меняет.
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		header.ID, header.UserID,
		header.Customer.FirstName, header.Customer.LastName, header.Customer.Phone, header.Customer.CPF,
		header.Customer.Address, header.Customer.City, header.Customer.State, header.Customer.ZipCode,
		header.Product.Name, header.Product.Image.URL, header.Product.Quantity, header.Product.Price,
		header.Product.ShippingPrice, header.Product.FreeShipping,
		header.Tracking.Code, header.Tracking.Company, header.Tracking.EstimatedDeliveryDate, header.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintOf(err) == trackingCodeConstraint {
				return domain.Order{}, domain.ErrTrackingCodeTaken
			}
			return domain.Order{}, domain.ErrOrderExists
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	var steps []domain.TimedStep
	if steps, err = insertSteps(ctx, tx, header.ID, order.Tracking.Steps); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit insert order: %w", err)
	}

	header.Tracking.Steps = steps
	return header, nil
}

func (r *orderRepository) Update(ctx context.Context, order domain.Order) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	// После Commit откат возвращает sql.ErrTxDone и ничего не меняет.
	defer func() {
		_ = tx.Rollback()
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET customer_first_name = $2,
		    customer_last_name = $3,
		    customer_phone = $4,
		    customer_cpf = $5,
		    customer_address = $6,
		    customer_city = $7,
		    customer_state = $8,
		    customer_zip_code = $9,
		    product_name = $10,
		    product_image_url = $11,
		    product_quantity = $12,
		    product_price = $13,
		    shipping_price = $14,
		    free_shipping = $15,
		    tracking_code = $16,
		    tracking_company = $17,
		    estimated_delivery_date = $18
		WHERE id = $1
	`,
		order.ID,
		order.Customer.FirstName, order.Customer.LastName, order.Customer.Phone, order.Customer.CPF,
		order.Customer.Address, order.Customer.City, order.Customer.State, order.Customer.ZipCode,
		order.Product.Name, order.Product.Image.URL, order.Product.Quantity, order.Product.Price,
		order.Product.ShippingPrice, order.Product.FreeShipping,
		domain.NormalizeTrackingCode(order.Tracking.Code), order.Tracking.Company, order.Tracking.EstimatedDeliveryDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTrackingCodeTaken
		}
		return fmt.Errorf("update order: %w", err)
	}

	var affected int64
	if affected, err = res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrOrderNotFound
		return err
	}

	// Шаги пересоздаются целиком: исходные времена не сохраняются.
	if _, err = tx.ExecContext(ctx, `DELETE FROM tracking_steps WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("delete tracking steps: %w", err)
	}
	if _, err = insertSteps(ctx, tx, order.ID, order.Tracking.Steps); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update order: %w", err)
	}

	return nil
}

func (r *orderRepository) Delete(ctx context.Context, orderID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	if order.Tracking.Steps, err = loadSteps(ctx, r.db, order.ID); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *orderRepository) FindByOwner(ctx context.Context, userID string) ([]domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		if orders[i].Tracking.Steps, err = loadSteps(ctx, r.db, orders[i].ID); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *orderRepository) FindByTrackingCode(ctx context.Context, code string) (domain.Order, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE tracking_code = $1
	`, domain.NormalizeTrackingCode(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, false, nil
		}
		return domain.Order{}, false, fmt.Errorf("select order by tracking code: %w", err)
	}

	if order.Tracking.Steps, err = loadSteps(ctx, r.db, order.ID); err != nil {
		return domain.Order{}, false, err
	}
	return order, true, nil
}

// insertSteps вставляет шаги по порядку; position разрешает совпадения created_at.
func insertSteps(ctx context.Context, q queryer, orderID string, steps []domain.TimedStep) ([]domain.TimedStep, error) {
	saved := make([]domain.TimedStep, 0, len(steps))
	for position, step := range steps {
		rec := domain.EncodeStep(step.Step)
		rec.ID = uuid.NewString()

		if err := q.QueryRowContext(ctx, `
			INSERT INTO tracking_steps (
				id, order_id, position, status_type, origin_city, destination_city, delivery_city
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING created_at
		`,
			rec.ID, orderID, position, rec.StatusType, rec.OriginCity, rec.DestinationCity, rec.DeliveryCity,
		).Scan(&rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert tracking step: %w", err)
		}

		saved = append(saved, domain.TimedStep{Step: step.Step, ID: rec.ID, CreatedAt: rec.CreatedAt.UTC()})
	}
	return saved, nil
}

func loadSteps(ctx context.Context, q queryer, orderID string) ([]domain.TimedStep, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, status_type, origin_city, destination_city, delivery_city, created_at
		FROM tracking_steps
		WHERE order_id = $1
		ORDER BY created_at ASC, position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load tracking steps: %w", err)
	}
	defer rows.Close()

	records := make([]domain.StepRecord, 0)
	for rows.Next() {
		var (
			rec                            domain.StepRecord
			origin, destination, delivery sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.StatusType, &origin, &destination, &delivery, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tracking step: %w", err)
		}
		rec.OriginCity = nullableString(origin)
		rec.DestinationCity = nullableString(destination)
		rec.DeliveryCity = nullableString(delivery)
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking steps: %w", err)
	}

	steps, err := domain.DecodeSteps(records)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	return steps, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order domain.Order
		eta   sql.NullTime
	)
	if err := row.Scan(
		&order.ID, &order.UserID,
		&order.Customer.FirstName, &order.Customer.LastName, &order.Customer.Phone, &order.Customer.CPF,
		&order.Customer.Address, &order.Customer.City, &order.Customer.State, &order.Customer.ZipCode,
		&order.Product.Name, &order.Product.Image.URL, &order.Product.Quantity, &order.Product.Price,
		&order.Product.ShippingPrice, &order.Product.FreeShipping,
		&order.Tracking.Code, &order.Tracking.Company, &eta, &order.CreatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	if eta.Valid {
		date := eta.Time.UTC()
		order.Tracking.EstimatedDeliveryDate = &date
	}
	order.CreatedAt = order.CreatedAt.UTC()
	return order, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

var _ domain.OrderRepository = (*orderRepository)(nil)
