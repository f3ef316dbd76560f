// Package validator validates request and domain structs.
//
// Business code depends on the Validator interface. The go-playground/validator
// v10 implementation reports failures as a field-to-message map keyed by the
// JSON field name, so handlers can return it to clients as is.
package validator
