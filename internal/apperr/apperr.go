// Package apperr defines the closed set of errors surfaced to screen
// controllers, along with the policy deciding which of them are worth
// retrying.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the top-level branch of an Error.
type Kind string

const (
	KindData         Kind = "data"
	KindValidation   Kind = "validation"
	KindNotification Kind = "notification"
	KindUnknown      Kind = "unknown"
)

// Code identifies a single leaf of the error taxonomy.
type Code string

const (
	FetchFailed     Code = "fetch_failed"
	SaveFailed      Code = "save_failed"
	DeleteFailed    Code = "delete_failed"
	StoreFailure    Code = "store_error"
	StoreFatal      Code = "store_fatal_error"
	NotFound        Code = "not_found"
	EmptyName       Code = "empty_name"
	InvalidQuantity Code = "invalid_quantity"
	PastExpiration  Code = "past_expiration_date"
	EmptyLotNumber  Code = "empty_lot_number"
	InvalidCategory Code = "invalid_category"
	InvalidLocation Code = "invalid_location"
	PermissionDeny  Code = "permission_denied"
	SchedulingFail  Code = "scheduling_failed"
	InvalidContent  Code = "invalid_content"
	UnknownError    Code = "unknown"
)

type codeInfo struct {
	kind        Kind
	description string
	recovery    string
}

var codes = map[Code]codeInfo{
	FetchFailed:     {KindData, "Failed to load products.", "Check your storage and try again."},
	SaveFailed:      {KindData, "Failed to save the product.", "Try saving again."},
	DeleteFailed:    {KindData, "Failed to delete the product.", "Try deleting again."},
	StoreFailure:    {KindData, "A storage error occurred", "Restart the application. If the problem persists, reinstall it."},
	StoreFatal:      {KindData, "The product database could not be opened.", "Restart the application. If the problem persists, reinstall it."},
	NotFound:        {KindData, "The product was not found.", "Refresh the list; the product may have been removed."},
	EmptyName:       {KindValidation, "Product name cannot be empty.", "Enter a name for the product."},
	InvalidQuantity: {KindValidation, "Quantity must be greater than zero.", "Enter a positive quantity."},
	PastExpiration:  {KindValidation, "Expiration date must be in the future.", "Pick a date after today."},
	EmptyLotNumber:  {KindValidation, "Lot number cannot be empty.", "Enter the lot number printed on the package."},
	InvalidCategory: {KindValidation, "Invalid product category.", "Choose a category from the list."},
	InvalidLocation: {KindValidation, "Invalid storage location.", "Choose a storage location from the list."},
	PermissionDeny:  {KindNotification, "Notification permission was denied.", "Enable notifications in settings to receive expiration reminders."},
	SchedulingFail:  {KindNotification, "Failed to schedule the reminder.", "Try again later."},
	InvalidContent:  {KindNotification, "The reminder content is invalid.", "Check the product details."},
	UnknownError:    {KindUnknown, "An unexpected error occurred", "Try again. If the problem persists, restart the application."},
}

// Error is a tagged union over the taxonomy. Two errors are equal when their
// Code and Message match; Err is carried for diagnostics only.
type Error struct {
	Code Code
	// Message is the payload of StoreFailure and UnknownError.
	Message string
	Err     error
}

// Sentinels for errors.Is matching.
var (
	ErrFetchFailed     = New(FetchFailed)
	ErrSaveFailed      = New(SaveFailed)
	ErrDeleteFailed    = New(DeleteFailed)
	ErrStoreFatal      = New(StoreFatal)
	ErrNotFound        = New(NotFound)
	ErrEmptyName       = New(EmptyName)
	ErrInvalidQuantity = New(InvalidQuantity)
	ErrPastExpiration  = New(PastExpiration)
	ErrEmptyLotNumber  = New(EmptyLotNumber)
	ErrInvalidCategory = New(InvalidCategory)
	ErrInvalidLocation = New(InvalidLocation)
	ErrPermissionDeny  = New(PermissionDeny)
	ErrSchedulingFail  = New(SchedulingFail)
	ErrInvalidContent  = New(InvalidContent)
)

func New(code Code) *Error {
	return &Error{Code: code}
}

// StoreError builds the StoreError(message) branch.
func StoreError(message string) *Error {
	return &Error{Code: StoreFailure, Message: message}
}

// Unknown builds the Unknown(message) branch.
func Unknown(message string) *Error {
	return &Error{Code: UnknownError, Message: message}
}

// Wrap builds an error of the given code that keeps cause for unwrapping.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

func (e *Error) Kind() Kind {
	if info, ok := codes[e.Code]; ok {
		return info.kind
	}
	return KindUnknown
}

// Description is the human readable text shown to the user.
func (e *Error) Description() string {
	info, ok := codes[e.Code]
	if !ok {
		info = codes[UnknownError]
	}
	if e.Message != "" && (e.Code == StoreFailure || e.Code == UnknownError) {
		return fmt.Sprintf("%s: %s", info.description, e.Message)
	}
	return info.description
}

func (e *Error) RecoverySuggestion() string {
	if info, ok := codes[e.Code]; ok {
		return info.recovery
	}
	return codes[UnknownError].recovery
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Description(), e.Err)
	}
	return e.Description()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports structural equality so errors.Is(err, ErrFetchFailed) matches
// any FetchFailed regardless of its cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return Equal(e, t)
}

// Equal compares two errors by branch and payload.
func Equal(a, b *Error) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Code == b.Code && a.Message == b.Message
}

// Classify coerces any error into the taxonomy. An *Error anywhere in the
// chain is returned unchanged; anything else becomes Unknown.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Code: UnknownError, Message: err.Error(), Err: err}
}
