package domain

import "errors"

var (
	ErrInvalidID   = errors.New("invalid id")
	ErrInvalidPage = errors.New("invalid page")

	ErrOrganizerNotFound = errors.New("organizer not found")
	ErrTokenInvalid      = errors.New("invalid or inactive token")

	ErrEventNotFound     = errors.New("event not found")
	ErrEventNameRequired = errors.New("event name required")
	ErrEventSlugRequired = errors.New("event slug required")
	ErrEventSlugTaken    = errors.New("event slug already in use")
	ErrEventHasOrders    = errors.New("event has orders and cannot be deleted")

	ErrSubeventNotFound  = errors.New("subevent not found")
	ErrSubeventRequired  = errors.New("subevent required for event series")
	ErrSubeventsDisabled = errors.New("event is not an event series")
	ErrSubeventHasOrders = errors.New("subevent has orders and cannot be deleted")

	ErrItemNotFound      = errors.New("item not found")
	ErrItemNameRequired  = errors.New("item name required")
	ErrVariationNotFound = errors.New("variation not found")
	ErrItemInUse         = errors.New("item is referenced by order positions")
	ErrInvalidPrice      = errors.New("invalid price")

	ErrQuotaNotFound     = errors.New("quota not found")
	ErrQuotaNameRequired = errors.New("quota name required")
	ErrInvalidQuotaSize  = errors.New("quota size must be null or non-negative")
	ErrQuotaItemsMissing = errors.New("quota needs at least one item")
	ErrInsufficientQuota = errors.New("quota is not left for this item")

	ErrCartPositionNotFound = errors.New("cart position not found")
	ErrCartPositionExpired  = errors.New("cart position has expired")

	ErrSeatNotFound     = errors.New("seat not found")
	ErrSeatGUIDRequired = errors.New("seat guid required")
	ErrSeatTaken        = errors.New("seat is already taken")
	ErrSeatBlocked      = errors.New("seat is blocked")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderCodeTaken     = errors.New("order code already in use")
	ErrOrderLocked        = errors.New("unable to acquire a lock on the order")
	ErrOrderNotPending    = errors.New("order is not pending")
	ErrOrderNotExpired    = errors.New("order is not past its payment deadline")
	ErrInvalidTransition  = errors.New("order status does not allow this transition")
	ErrNoPositions        = errors.New("order needs at least one position")
	ErrPositionNotFound   = errors.New("order position not found")
	ErrEmailRequired      = errors.New("order email required")
	ErrInvalidOrderStatus = errors.New("invalid order status")

	ErrCheckinListNotFound     = errors.New("check-in list not found")
	ErrCheckinListNameRequired = errors.New("check-in list name required")
	ErrInvalidCheckinType      = errors.New("check-in type must be entry or exit")
	ErrNonceRequired           = errors.New("check-in nonce required")
	ErrOrderNotPaid            = errors.New("order is not paid")
	ErrProductNotAllowed       = errors.New("item is not allowed on this check-in list")
	ErrAlreadyRedeemed         = errors.New("position was already checked in")

	ErrVoucherNotFound       = errors.New("voucher not found")
	ErrVoucherCodeRequired   = errors.New("voucher code required")
	ErrInvalidPriceMode      = errors.New("invalid voucher price mode")
	ErrInvalidPercent        = errors.New("percent discount cannot exceed 100")
	ErrVoucherCodeTaken      = errors.New("voucher code already in use")
	ErrVoucherBudgetExceeded = errors.New("voucher has no usages left")
	ErrVoucherExpired        = errors.New("voucher is no longer valid")
	ErrVoucherItemMismatch   = errors.New("voucher is not valid for this item")
	ErrVoucherRedeemed       = errors.New("voucher has been redeemed and cannot be deleted")

	ErrInvoiceNotFound = errors.New("invoice not found")

	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCustomerEmailTaken = errors.New("customer email already registered")
	ErrPasswordRequired   = errors.New("password required")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrExhibitorNotFound     = errors.New("exhibitor not found")
	ErrExhibitorNameRequired = errors.New("exhibitor name required")

	ErrExportNotFound      = errors.New("export not found")
	ErrExportRunning       = errors.New("export has not finished yet")
	ErrExportFailed        = errors.New("export failed")
	ErrExportExpired       = errors.New("export result is no longer available")
	ErrUnknownExportFormat = errors.New("unknown export format")
)
