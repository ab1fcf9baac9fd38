package customerRepository

const (
	queryCreateCustomer = `
		INSERT INTO customers (
			id, name, phone_number, pin_hash, language, created_at, updated_at
		) VALUES (
			:id, :name, :phone_number, :pin_hash, :language, :created_at, :updated_at
		)
	`

	queryGetCustomerByID = `
		SELECT id, name, phone_number, pin_hash, language, created_at, updated_at
		FROM customers
		WHERE id = :id
	`

	queryGetCustomerByPhoneNumber = `
		SELECT id, name, phone_number, pin_hash, language, created_at, updated_at
		FROM customers
		WHERE phone_number = :phone_number
	`
)
