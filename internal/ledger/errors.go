package ledger

// Error is a domain error with a stable code for logs.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the log code, for example "AMOUNT_NOT_POSITIVE".
func (e *Error) Code() string { return e.code }

func newError(code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

var (
	ErrEntryFormat       = newError("ENTRY_FORMAT", "ledger: expected <amount> <category>")
	ErrAmountNotNumber   = newError("AMOUNT_NOT_NUMBER", "ledger: amount is not a number")
	ErrAmountNotPositive = newError("AMOUNT_NOT_POSITIVE", "ledger: amount must be positive")
	ErrAmountTooLarge    = newError("AMOUNT_TOO_LARGE", "ledger: amount is too large")
	ErrCategoryEmpty     = newError("CATEGORY_EMPTY", "ledger: category is empty")
	ErrCategoryNumeric   = newError("CATEGORY_NUMERIC", "ledger: category must not be a number")

	// ErrUserNotRegistered is returned by writes for users that never sent /start.
	ErrUserNotRegistered = newError("USER_NOT_REGISTERED", "ledger: user not registered")
	// ErrNotFound is returned when no transaction matches.
	ErrNotFound = newError("NOT_FOUND", "ledger: transaction not found")
)
