package customerRepository

import (
	"AgriVoice/internal/api/customer"
	"AgriVoice/internal/entity"
	contextPkg "AgriVoice/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

type CustomerDB struct {
	ID          sql.NullString `db:"id"`
	Name        sql.NullString `db:"name"`
	PhoneNumber sql.NullString `db:"phone_number"`
	PinHash     sql.NullString `db:"pin_hash"`
	Language    sql.NullString `db:"language"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

func (r *customerRepository) CreateCustomer(c context.Context, cust entity.Customer) error {
	requestID := contextPkg.GetRequestID(c)
	now := time.Now()

	argsKV := map[string]interface{}{
		"id":           cust.ID,
		"name":         cust.Name,
		"phone_number": cust.PhoneNumber,
		"pin_hash":     cust.PinHash,
		"language":     cust.Language,
		"created_at":   now,
		"updated_at":   now,
	}

	query, args, err := sqlx.Named(queryCreateCustomer, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateCustomer")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == "customers_phone_number_key" {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Phone number already exists")
			return customer.ErrPhoneNumberAlreadyExists
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating customer")
		return err
	}

	return nil
}

func (r *customerRepository) GetByID(c context.Context, id string) (entity.Customer, error) {
	return r.getOne(c, queryGetCustomerByID, map[string]interface{}{"id": id}, "GetByID")
}

func (r *customerRepository) GetByPhoneNumber(c context.Context, phoneNumber string) (entity.Customer, error) {
	return r.getOne(c, queryGetCustomerByPhoneNumber, map[string]interface{}{"phone_number": phoneNumber}, "GetByPhoneNumber")
}

func (r *customerRepository) getOne(c context.Context, namedQuery string, argsKV map[string]interface{}, op string) (entity.Customer, error) {
	requestID := contextPkg.GetRequestID(c)
	var row CustomerDB

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " named query preparation err")
		return entity.Customer{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
			}).Warn(op + " no rows found")
			return entity.Customer{}, customer.ErrCustomerNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return entity.Customer{}, err
	}

	return r.makeCustomer(row), nil
}

func (r *customerRepository) makeCustomer(row CustomerDB) entity.Customer {
	return entity.Customer{
		ID:          row.ID.String,
		Name:        row.Name.String,
		PhoneNumber: row.PhoneNumber.String,
		PinHash:     row.PinHash.String,
		Language:    row.Language.String,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}
