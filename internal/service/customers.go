package service

import (
	"context"
	"fmt"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// ListCustomers lists every customer.
func (s *Service) ListCustomers(ctx context.Context) (string, error) {
	return s.run(ctx, "list_customers", "listing customers", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "list_customers", "Listing customers", nil)
		if err != nil {
			return "", err
		}
		items := normalize.AsList(data)
		if len(items) == 0 {
			return "No customers found.", nil
		}
		out := "Customers:\n"
		for _, c := range items {
			out += fmt.Sprintf("- ID: %s, Name: %s, Sector: %s\n",
				field(c, "customer_id", "id"),
				field(c, "customer_name", "name"),
				field(c, "customer_sector", "sector"),
			)
		}
		return out, nil
	})
}

// GetCustomerByID renders one customer.
func (s *Service) GetCustomerByID(ctx context.Context, customerID int) (string, error) {
	return s.run(ctx, "get_customer_by_id", fmt.Sprintf("getting customer %d", customerID), func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "get_customer_by_id", fmt.Sprintf("Getting customer %d", customerID), outbound.Args{
			{Key: "customer_id", Value: customerID},
		})
		if err != nil {
			return "", err
		}
		if empty(data) {
			return fmt.Sprintf("Customer with ID %d not found.", customerID), nil
		}
		return fmt.Sprintf("Customer Details:\nID: %d\nName: %s\nSector: %s\nDescription: %s",
			customerID,
			field(data, "customer_name", "name"),
			field(data, "customer_sector", "sector"),
			field(data, "customer_description", "description"),
		), nil
	})
}

// LookupCustomer finds a customer by name.
func (s *Service) LookupCustomer(ctx context.Context, name string) (string, error) {
	return s.run(ctx, "lookup_customer", fmt.Sprintf("looking up customer '%s'", name), func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "lookup_customer", "Looking up customer "+name, outbound.Args{
			{Key: "customer_name", Value: name},
		})
		if err != nil {
			return "", err
		}
		if empty(data) {
			return fmt.Sprintf("Customer '%s' not found.", name), nil
		}
		found := field(data, "customer_name", "name")
		display := name
		if !empty(found.Any()) {
			display = found.String()
		}
		return fmt.Sprintf("Customer found. ID: %s, Name: %s", field(data, "customer_id", "id"), display), nil
	})
}

// NewCustomer describes a customer to create.
type NewCustomer struct {
	Name        string  `json:"name" jsonschema:"customer name"`
	Description *string `json:"description,omitempty" jsonschema:"customer description"`
	SLA         *string `json:"sla,omitempty" jsonschema:"service level agreement"`
}

// CreateCustomer creates a customer.
func (s *Service) CreateCustomer(ctx context.Context, c NewCustomer) (string, error) {
	return s.run(ctx, "create_customer", "creating customer", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "add_customer", "Creating customer", outbound.Args{
			{Key: "customer_name", Value: c.Name},
			{Key: "customer_description", Value: opt(c.Description)},
			{Key: "customer_sla", Value: opt(c.SLA)},
		})
		if err != nil {
			return "", err
		}
		return "Customer created successfully. ID: " + field(data, "customer_id", "id").String(), nil
	})
}
