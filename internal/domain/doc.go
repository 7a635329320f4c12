// Package domain contains the core business entities of the to-do service and
// the validation rules that apply to them, independent of storage or transport.
package domain
